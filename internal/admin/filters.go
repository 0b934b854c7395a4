package admin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"food-order-backend/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Page struct {
	Limit  int
	Offset int
}

type CustomerFilter struct {
	IsActive *bool
	Search   string
	Page
}

type CategoryFilter struct {
	Search string
	Page
}

type MenuItemFilter struct {
	CategoryID  *int64
	IsAvailable *bool
	IsActive    *bool
	Search      string
	Page
}

type OrderFilter struct {
	Status      models.OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Search      string
	Page
}

type PaymentFilter struct {
	Status models.PaymentStatus
	Method models.PaymentMethod
	Page
}

type EventFilter struct {
	FromStatus models.OrderStatus
	ToStatus   models.OrderStatus
	Search     string
	Page
}

// query wraps url.Values and collects every parse problem into one ValidationError.
type query struct {
	v    url.Values
	verr models.ValidationError
}

func newQuery(v url.Values) *query {
	return &query{v: v, verr: models.ValidationError{}}
}

func (q *query) search() string {
	return strings.TrimSpace(q.v.Get("search"))
}

func (q *query) boolean(name string) *bool {
	raw := q.v.Get(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.verr.Add(name, "Enter a valid boolean.")
		return nil
	}
	return &b
}

func (q *query) id(name string) *int64 {
	raw := q.v.Get(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		q.verr.Add(name, "Enter a valid number.")
		return nil
	}
	return &n
}

func (q *query) status(name string) models.OrderStatus {
	s := models.OrderStatus(q.v.Get(name))
	if s != "" && !s.Valid() {
		q.verr.Add(name, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", s))
		return ""
	}
	return s
}

func (q *query) timestamp(name string, endOfDay bool) *time.Time {
	raw := q.v.Get(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		q.verr.Add(name, "Enter a valid date/time.")
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

func (q *query) page() Page {
	p := Page{Limit: defaultLimit}
	if raw := q.v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			q.verr.Add("limit", "Ensure this value is greater than or equal to 1.")
		} else {
			p.Limit = min(n, maxLimit)
		}
	}
	if raw := q.v.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			q.verr.Add("offset", "Ensure this value is greater than or equal to 0.")
		} else {
			p.Offset = n
		}
	}
	return p
}

func ParseCustomerFilter(v url.Values) (CustomerFilter, error) {
	q := newQuery(v)
	f := CustomerFilter{IsActive: q.boolean("is_active"), Search: q.search(), Page: q.page()}
	return f, q.verr.Err()
}

func ParseCategoryFilter(v url.Values) (CategoryFilter, error) {
	q := newQuery(v)
	f := CategoryFilter{Search: q.search(), Page: q.page()}
	return f, q.verr.Err()
}

func ParseMenuItemFilter(v url.Values) (MenuItemFilter, error) {
	q := newQuery(v)
	f := MenuItemFilter{
		CategoryID:  q.id("category_id"),
		IsAvailable: q.boolean("is_available"),
		IsActive:    q.boolean("is_active"),
		Search:      q.search(),
		Page:        q.page(),
	}
	return f, q.verr.Err()
}

func ParseOrderFilter(v url.Values) (OrderFilter, error) {
	q := newQuery(v)
	f := OrderFilter{
		Status:      q.status("status"),
		CreatedFrom: q.timestamp("created_from", false),
		CreatedTo:   q.timestamp("created_to", true),
		Search:      q.search(),
		Page:        q.page(),
	}
	return f, q.verr.Err()
}

func ParsePaymentFilter(v url.Values) (PaymentFilter, error) {
	q := newQuery(v)
	f := PaymentFilter{
		Status: models.PaymentStatus(v.Get("status")),
		Method: models.PaymentMethod(v.Get("method")),
		Page:   q.page(),
	}
	if f.Status != "" && !f.Status.Valid() {
		q.verr.Add("status", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", f.Status))
	}
	if f.Method != "" && !f.Method.Valid() {
		q.verr.Add("method", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", f.Method))
	}
	return f, q.verr.Err()
}

func ParseEventFilter(v url.Values) (EventFilter, error) {
	q := newQuery(v)
	f := EventFilter{
		FromStatus: q.status("from_status"),
		ToStatus:   q.status("to_status"),
		Search:     q.search(),
		Page:       q.page(),
	}
	return f, q.verr.Err()
}
