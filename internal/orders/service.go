package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"food-order-backend/internal/events"
	"food-order-backend/internal/models"
)

var ErrTerminalStatus = errors.New("order is in a terminal status")

const orderNumberAttempts = 5

// TransitionFunc decides the next status given the current one. changed=false
// leaves the order untouched and records no event.
type TransitionFunc func(current models.OrderStatus) (next models.OrderStatus, changed bool, err error)

type Repository interface {
	MenuItemsByIDs(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error)
	UpsertCustomer(ctx context.Context, in models.CustomerUpsert) (*models.Customer, error)
	// CreateOrder stores the order, its items, its payment and the first status
	// event in one transaction. It returns models.ErrConflict when the order
	// number is already taken.
	CreateOrder(ctx context.Context, order *models.Order, first models.OrderStatusEvent) error
	OrderByNumber(ctx context.Context, number string) (*models.Order, error)
	// TransitionStatus locks the order row, applies fn and, when it reports a
	// change, updates the status and appends the event atomically.
	TransitionStatus(ctx context.Context, number string, fn TransitionFunc, at time.Time) (*models.OrderStatusEvent, error)
	EventsByOrderNumber(ctx context.Context, number string) ([]models.OrderStatusEvent, error)
}

type Publisher interface {
	Publish(ctx context.Context, e events.Event)
}

type PlaceOrderRequest struct {
	Customer            map[string]string `json:"customer"`
	Items               []ItemRequest     `json:"items"`
	SpecialInstructions string            `json:"special_instructions"`
	DeliveryFeeCents    *int64            `json:"delivery_fee_cents"`
}

type ItemRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

type Service struct {
	repo      Repository
	publisher Publisher
	taxRate   float64
	now       func() time.Time
	newNumber func() (string, error)
}

func NewService(repo Repository, publisher Publisher, taxRate float64) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		taxRate:   taxRate,
		now:       time.Now,
		newNumber: GenerateOrderNumber,
	}
}

func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	customer, err := validatePlaceOrder(req)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.MenuItemID)
	}
	menuItems, err := s.repo.MenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}

	verr := models.ValidationError{}
	for i, it := range req.Items {
		mi, ok := menuItems[it.MenuItemID]
		if !ok || !mi.Orderable() {
			verr.Add(fmt.Sprintf("items[%d].menu_item_id", i), fmt.Sprintf("Invalid pk %q - object does not exist.", strconv.FormatInt(it.MenuItemID, 10)))
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	c, err := s.repo.UpsertCustomer(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}

	order := &models.Order{
		Status:              models.StatusPending,
		SpecialInstructions: req.SpecialInstructions,
		CustomerID:          c.ID,
		CustomerName:        c.FullName,
		CustomerEmail:       c.Email,
	}
	if req.DeliveryFeeCents != nil {
		order.DeliveryFeeCents = *req.DeliveryFeeCents
	}
	for _, it := range req.Items {
		mi := menuItems[it.MenuItemID]
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID:     mi.ID,
			MenuItem:       &mi,
			Quantity:       it.Quantity,
			UnitPriceCents: mi.PriceCents,
		})
	}
	RecalculateTotals(order, s.taxRate)

	order.Payment = &models.Payment{
		Method:      models.MethodCard,
		AmountCents: order.TotalCents,
		Currency:    models.DefaultCurrency,
		Status:      models.PaymentInitiated,
	}

	if err := s.create(ctx, order); err != nil {
		return nil, err
	}

	slog.Info("Order placed", "order_number", order.OrderNumber, "customer_id", c.ID, "total_cents", order.TotalCents)
	s.publisher.Publish(ctx, events.OrderCreated(order))

	return order, nil
}

func (s *Service) create(ctx context.Context, order *models.Order) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := s.newNumber()
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		order.OrderNumber = number

		now := s.now()
		order.CreatedAt, order.UpdatedAt = now, now
		first := models.OrderStatusEvent{
			OrderNumber: number,
			FromStatus:  models.StatusPending,
			ToStatus:    models.StatusPending,
			At:          now,
		}

		err = s.repo.CreateOrder(ctx, order, first)
		if errors.Is(err, models.ErrConflict) {
			slog.Warn("Order number collision, retrying", "order_number", number)
			continue
		}
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	}
	return fmt.Errorf("create order: no free order number after %d attempts", orderNumberAttempts)
}

func (s *Service) GetOrder(ctx context.Context, number string) (*models.Order, error) {
	return s.repo.OrderByNumber(ctx, number)
}

// UpdateStatus moves the order to status. An unknown order is ErrNotFound even
// when status is invalid. Setting the current status again is a
// no-op; leaving COMPLETED or CANCELLED is refused with ErrTerminalStatus.
func (s *Service) UpdateStatus(ctx context.Context, number string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		if _, err := s.repo.OrderByNumber(ctx, number); err != nil {
			return nil, err
		}
		if status == "" {
			return nil, models.NewValidationError("status", "This field is required.")
		}
		return nil, models.NewValidationError("status", fmt.Sprintf("%q is not a valid choice.", string(status)))
	}

	event, err := s.repo.TransitionStatus(ctx, number, func(current models.OrderStatus) (models.OrderStatus, bool, error) {
		if current == status {
			return current, false, nil
		}
		if current.Terminal() {
			return current, false, fmt.Errorf("%w: %s", ErrTerminalStatus, current)
		}
		return status, true, nil
	}, s.now())
	if err != nil {
		return nil, err
	}

	order, err := s.repo.OrderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	if event != nil {
		slog.Info("Order status changed", "order_number", number, "from", event.FromStatus, "to", event.ToStatus)
		s.publisher.Publish(ctx, events.StatusChanged(order, event))
	}
	return order, nil
}

func (s *Service) ListEvents(ctx context.Context, number string) ([]models.OrderStatusEvent, error) {
	return s.repo.EventsByOrderNumber(ctx, number)
}

func validatePlaceOrder(req PlaceOrderRequest) (models.CustomerUpsert, error) {
	verr := models.ValidationError{}
	var c models.CustomerUpsert

	if len(req.Customer) == 0 {
		verr.Add("customer", "This dictionary may not be empty.")
	} else {
		c.Email = strings.TrimSpace(req.Customer["email"])
		c.FullName = strings.TrimSpace(req.Customer["full_name"])
		if c.Email == "" || c.FullName == "" {
			verr.Add("customer", "customer.email and customer.full_name are required")
		} else {
			if models.TooLong(c.Email, models.MaxEmailLen) {
				verr.Add("customer.email", fmt.Sprintf("Ensure this field has no more than %d characters.", models.MaxEmailLen))
			} else if !models.ValidEmail(c.Email) {
				verr.Add("customer.email", "Enter a valid email address.")
			}
			if models.TooLong(c.FullName, models.MaxFullNameLen) {
				verr.Add("customer.full_name", fmt.Sprintf("Ensure this field has no more than %d characters.", models.MaxFullNameLen))
			}
		}
		if phone, ok := req.Customer["phone"]; ok {
			phone = strings.TrimSpace(phone)
			if !models.ValidPhone(phone) {
				verr.Add("customer.phone", "Invalid phone number format")
			}
			c.Phone = &phone
		}
		if address, ok := req.Customer["address"]; ok {
			c.Address = &address
		}
	}

	if len(req.Items) == 0 {
		verr.Add("items", "This list may not be empty.")
	}
	seen := make(map[int64]bool, len(req.Items))
	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.MenuItemID <= 0 {
			verr.Add(field+".menu_item_id", "This field is required.")
		} else if seen[it.MenuItemID] {
			verr.Add(field+".menu_item_id", "Duplicate menu item in order.")
		}
		seen[it.MenuItemID] = true

		if it.Quantity < 1 {
			verr.Add(field+".quantity", "Ensure this value is greater than or equal to 1.")
		} else if it.Quantity > models.MaxOrderQuantity {
			verr.Add(field+".quantity", fmt.Sprintf("Ensure this value is less than or equal to %d.", models.MaxOrderQuantity))
		}
	}

	if req.DeliveryFeeCents != nil && *req.DeliveryFeeCents < 0 {
		verr.Add("delivery_fee_cents", "Ensure this value is greater than or equal to 0.")
	}

	return c, verr.Err()
}
