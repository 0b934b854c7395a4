package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"food-order-backend/internal/models"
)

const (
	maxImageURLLen     = 200
	maxProcessorRefLen = 100
)

type Repository interface {
	ListCustomers(ctx context.Context, f CustomerFilter) ([]models.Customer, error)
	CustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	// CreateCustomer and UpdateCustomer return models.ErrConflict on a duplicate email.
	CreateCustomer(ctx context.Context, c *models.Customer) error
	UpdateCustomer(ctx context.Context, c *models.Customer) error

	ListCategories(ctx context.Context, f CategoryFilter) ([]models.Category, error)
	CategoryByID(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error

	ListMenuItems(ctx context.Context, f MenuItemFilter) ([]models.MenuItem, error)
	MenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, m *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, m *models.MenuItem) error

	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error)
	OrderByID(ctx context.Context, id int64) (*models.Order, error)

	ListPayments(ctx context.Context, f PaymentFilter) ([]models.Payment, error)
	PaymentByID(ctx context.Context, id int64) (*models.Payment, error)
	UpdatePayment(ctx context.Context, p *models.Payment) error

	ListStatusEvents(ctx context.Context, f EventFilter) ([]models.OrderStatusEvent, error)
}

// MenuInvalidator drops cached public menu listings.
type MenuInvalidator interface {
	Invalidate(ctx context.Context) error
}

// OptionalID tells an absent JSON field apart from an explicit null.
type OptionalID struct {
	Set   bool
	Value *int64
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type CustomerInput struct {
	Email          *string `json:"email"`
	FullName       *string `json:"full_name"`
	Phone          *string `json:"phone"`
	DefaultAddress *string `json:"default_address"`
	IsActive       *bool   `json:"is_active"`
}

type CategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
	IsActive    *bool   `json:"is_active"`
}

type MenuItemInput struct {
	CategoryID  OptionalID `json:"category_id"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	PriceCents  *int64     `json:"price_cents"`
	ImageURL    *string    `json:"image_url"`
	IsAvailable *bool      `json:"is_available"`
	IsActive    *bool      `json:"is_active"`
}

type PaymentInput struct {
	Status       *models.PaymentStatus `json:"status"`
	ProcessorRef *string               `json:"processor_ref"`
}

// Service backs the staff admin API. Deletes are soft: the row is kept and
// marked inactive so existing orders keep their references.
type Service struct {
	repo Repository
	menu MenuInvalidator
}

func NewService(repo Repository, menu MenuInvalidator) *Service {
	return &Service{repo: repo, menu: menu}
}

func (s *Service) invalidateMenu(ctx context.Context) {
	if s.menu == nil {
		return
	}
	if err := s.menu.Invalidate(ctx); err != nil {
		slog.Warn("Menu cache invalidation failed", "error", err)
	}
}

// Customers

func (s *Service) ListCustomers(ctx context.Context, f CustomerFilter) ([]models.Customer, error) {
	return s.repo.ListCustomers(ctx, f)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return s.repo.CustomerByID(ctx, id)
}

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	c := &models.Customer{IsActive: true}
	verr := models.ValidationError{}
	if in.Email == nil || strings.TrimSpace(*in.Email) == "" {
		verr.Add("email", "This field is required.")
	}
	if in.FullName == nil || strings.TrimSpace(*in.FullName) == "" {
		verr.Add("full_name", "This field is required.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if err := applyCustomer(c, in); err != nil {
		return nil, err
	}

	err := s.repo.CreateCustomer(ctx, c)
	if errors.Is(err, models.ErrConflict) {
		return nil, models.NewValidationError("email", "customer with this email already exists.")
	}
	if err != nil {
		return nil, err
	}
	slog.Info("Customer created", "customer_id", c.ID)
	return c, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, in CustomerInput) (*models.Customer, error) {
	c, err := s.repo.CustomerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCustomer(c, in); err != nil {
		return nil, err
	}

	err = s.repo.UpdateCustomer(ctx, c)
	if errors.Is(err, models.ErrConflict) {
		return nil, models.NewValidationError("email", "customer with this email already exists.")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	_, err := s.UpdateCustomer(ctx, id, CustomerInput{IsActive: toPtr(false)})
	return err
}

func applyCustomer(c *models.Customer, in CustomerInput) error {
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.FullName != nil {
		c.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.DefaultAddress != nil {
		c.DefaultAddress = *in.DefaultAddress
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	verr := models.ValidationError{}
	if models.TooLong(c.Email, models.MaxEmailLen) {
		verr.Add("email", maxLenMessage(models.MaxEmailLen))
	} else if !models.ValidEmail(c.Email) {
		verr.Add("email", "Enter a valid email address.")
	}
	if c.FullName == "" {
		verr.Add("full_name", "This field may not be blank.")
	} else if models.TooLong(c.FullName, models.MaxFullNameLen) {
		verr.Add("full_name", maxLenMessage(models.MaxFullNameLen))
	}
	if !models.ValidPhone(c.Phone) {
		verr.Add("phone", "Invalid phone number format")
	}
	return verr.Err()
}

// Categories

func (s *Service) ListCategories(ctx context.Context, f CategoryFilter) ([]models.Category, error) {
	return s.repo.ListCategories(ctx, f)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return s.repo.CategoryByID(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, models.NewValidationError("name", "This field is required.")
	}
	c := &models.Category{IsActive: true}
	if err := applyCategory(c, in); err != nil {
		return nil, err
	}

	err := s.repo.CreateCategory(ctx, c)
	if errors.Is(err, models.ErrConflict) {
		return nil, models.NewValidationError("name", "category with this name already exists.")
	}
	if err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx)
	slog.Info("Category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*models.Category, error) {
	c, err := s.repo.CategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCategory(c, in); err != nil {
		return nil, err
	}

	err = s.repo.UpdateCategory(ctx, c)
	if errors.Is(err, models.ErrConflict) {
		return nil, models.NewValidationError("name", "category with this name already exists.")
	}
	if err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx)
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	_, err := s.UpdateCategory(ctx, id, CategoryInput{IsActive: toPtr(false)})
	return err
}

func applyCategory(c *models.Category, in CategoryInput) error {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Position != nil {
		c.Position = *in.Position
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	verr := models.ValidationError{}
	if c.Name == "" {
		verr.Add("name", "This field may not be blank.")
	} else if models.TooLong(c.Name, models.MaxCategoryNameLen) {
		verr.Add("name", maxLenMessage(models.MaxCategoryNameLen))
	}
	if c.Position < 0 {
		verr.Add("position", "Ensure this value is greater than or equal to 0.")
	}
	return verr.Err()
}

// Menu items

func (s *Service) ListMenuItems(ctx context.Context, f MenuItemFilter) ([]models.MenuItem, error) {
	return s.repo.ListMenuItems(ctx, f)
}

func (s *Service) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return s.repo.MenuItemByID(ctx, id)
}

func (s *Service) CreateMenuItem(ctx context.Context, in MenuItemInput) (*models.MenuItem, error) {
	verr := models.ValidationError{}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		verr.Add("name", "This field is required.")
	}
	if in.PriceCents == nil {
		verr.Add("price_cents", "This field is required.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	m := &models.MenuItem{IsActive: true, IsAvailable: true}
	if err := s.applyMenuItem(ctx, m, in); err != nil {
		return nil, err
	}

	err := s.repo.CreateMenuItem(ctx, m)
	if errors.Is(err, models.ErrConflict) {
		return nil, models.NewValidationError("non_field_errors", "The fields category, name must make a unique set.")
	}
	if err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx)
	slog.Info("Menu item created", "menu_item_id", m.ID, "name", m.Name)
	return m, nil
}

func (s *Service) UpdateMenuItem(ctx context.Context, id int64, in MenuItemInput) (*models.MenuItem, error) {
	m, err := s.repo.MenuItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyMenuItem(ctx, m, in); err != nil {
		return nil, err
	}

	err = s.repo.UpdateMenuItem(ctx, m)
	if errors.Is(err, models.ErrConflict) {
		return nil, models.NewValidationError("non_field_errors", "The fields category, name must make a unique set.")
	}
	if err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx)
	return m, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, id int64) error {
	_, err := s.UpdateMenuItem(ctx, id, MenuItemInput{IsActive: toPtr(false)})
	return err
}

func (s *Service) applyMenuItem(ctx context.Context, m *models.MenuItem, in MenuItemInput) error {
	verr := models.ValidationError{}

	if in.CategoryID.Set {
		m.CategoryID, m.Category = nil, nil
		if id := in.CategoryID.Value; id != nil {
			cat, err := s.repo.CategoryByID(ctx, *id)
			switch {
			case errors.Is(err, models.ErrNotFound):
				verr.Add("category_id", fmt.Sprintf("Invalid pk %q - object does not exist.", strconv.FormatInt(*id, 10)))
			case err != nil:
				return err
			default:
				m.CategoryID, m.Category = &cat.ID, cat
			}
		}
	}
	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.PriceCents != nil {
		m.PriceCents = *in.PriceCents
	}
	if in.ImageURL != nil {
		m.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.IsAvailable != nil {
		m.IsAvailable = *in.IsAvailable
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}

	if m.Name == "" {
		verr.Add("name", "This field may not be blank.")
	} else if models.TooLong(m.Name, models.MaxMenuItemNameLen) {
		verr.Add("name", maxLenMessage(models.MaxMenuItemNameLen))
	}
	if m.PriceCents < 0 {
		verr.Add("price_cents", "Ensure this value is greater than or equal to 0.")
	}
	if m.ImageURL != "" {
		u, err := url.ParseRequestURI(m.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			verr.Add("image_url", "Enter a valid URL.")
		} else if len(m.ImageURL) > maxImageURLLen {
			verr.Add("image_url", maxLenMessage(maxImageURLLen))
		}
	}
	return verr.Err()
}

// Orders, payments and status events

func (s *Service) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	return s.repo.ListOrders(ctx, f)
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.repo.OrderByID(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, f PaymentFilter) ([]models.Payment, error) {
	return s.repo.ListPayments(ctx, f)
}

func (s *Service) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	return s.repo.PaymentByID(ctx, id)
}

func (s *Service) UpdatePayment(ctx context.Context, id int64, in PaymentInput) (*models.Payment, error) {
	p, err := s.repo.PaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := models.ValidationError{}
	if in.Status != nil {
		if !in.Status.Valid() {
			verr.Add("status", fmt.Sprintf("%q is not a valid choice.", string(*in.Status)))
		}
		p.Status = *in.Status
	}
	if in.ProcessorRef != nil {
		p.ProcessorRef = strings.TrimSpace(*in.ProcessorRef)
		if models.TooLong(p.ProcessorRef, maxProcessorRefLen) {
			verr.Add("processor_ref", maxLenMessage(maxProcessorRefLen))
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePayment(ctx, p); err != nil {
		return nil, err
	}
	slog.Info("Payment updated", "payment_id", p.ID, "status", p.Status)
	return p, nil
}

func (s *Service) ListStatusEvents(ctx context.Context, f EventFilter) ([]models.OrderStatusEvent, error) {
	return s.repo.ListStatusEvents(ctx, f)
}

func maxLenMessage(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func toPtr[T any](v T) *T {
	return &v
}
