package models

import "time"

type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusReady          OrderStatus = "READY"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusCompleted      OrderStatus = "COMPLETED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusCompleted,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "CARD"
	MethodCash   PaymentMethod = "CASH"
	MethodWallet PaymentMethod = "WALLET"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodCash || m == MethodWallet
}

type PaymentStatus string

const (
	PaymentInitiated  PaymentStatus = "INITIATED"
	PaymentAuthorized PaymentStatus = "AUTHORIZED"
	PaymentCaptured   PaymentStatus = "CAPTURED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentInitiated, PaymentAuthorized, PaymentCaptured, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

const DefaultCurrency = "USD"

type Customer struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone"`
	DefaultAddress string    `json:"default_address"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CustomerUpsert carries the customer block of an order request. Nil fields
// were absent from the request and leave stored values untouched.
type CustomerUpsert struct {
	Email    string
	FullName string
	Phone    *string
	Address  *string
}

type Order struct {
	ID                  int64       `json:"id"`
	OrderNumber         string      `json:"order_number"`
	Status              OrderStatus `json:"status"`
	SpecialInstructions string      `json:"special_instructions"`
	SubtotalCents       int64       `json:"subtotal_cents"`
	TaxCents            int64       `json:"tax_cents"`
	DeliveryFeeCents    int64       `json:"delivery_fee_cents"`
	TotalCents          int64       `json:"total_cents"`
	ETA                 *time.Time  `json:"eta"`
	CustomerID          int64       `json:"-"`
	CustomerName        string      `json:"customer_name"`
	CustomerEmail       string      `json:"customer_email"`
	Items               []OrderItem `json:"items"`
	Payment             *Payment    `json:"payment"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"-"`
	MenuItemID     int64     `json:"-"`
	MenuItem       *MenuItem `json:"menu_item"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

type Payment struct {
	ID           int64         `json:"id"`
	OrderID      int64         `json:"-"`
	OrderNumber  string        `json:"order_number,omitempty"`
	Method       PaymentMethod `json:"method"`
	AmountCents  int64         `json:"amount_cents"`
	Currency     string        `json:"currency"`
	Status       PaymentStatus `json:"status"`
	ProcessorRef string        `json:"processor_ref"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type OrderStatusEvent struct {
	ID          int64       `json:"id"`
	OrderID     int64       `json:"-"`
	OrderNumber string      `json:"order_number"`
	FromStatus  OrderStatus `json:"from_status"`
	ToStatus    OrderStatus `json:"to_status"`
	At          time.Time   `json:"at"`
}
