package postgres

import (
	"time"

	"github.com/jackc/pgx/v5"

	"food-order-backend/internal/models"
)

const (
	categoryColumns = `id, name, description, position, is_active, created_at, updated_at`

	customerColumns = `id, email, full_name, phone, default_address, is_active, created_at, updated_at`

	menuItemColumns = `m.id, m.category_id, m.name, m.description, m.price_cents, m.image_url,
		m.is_available, m.is_active, m.created_at, m.updated_at,
		c.id, c.name, c.description, c.position, c.is_active, c.created_at, c.updated_at`
	menuItemFrom = `FROM menu_items m LEFT JOIN categories c ON c.id = m.category_id`

	orderColumns = `o.id, o.order_number, o.status, o.special_instructions, o.subtotal_cents,
		o.tax_cents, o.delivery_fee_cents, o.total_cents, o.eta, o.customer_id,
		cu.full_name, cu.email, o.created_at, o.updated_at`
	orderFrom = `FROM orders o JOIN customers cu ON cu.id = o.customer_id`

	paymentColumns = `p.id, p.order_id, o.order_number, p.method, p.amount_cents, p.currency,
		p.status, p.processor_ref, p.created_at, p.updated_at`
	paymentFrom = `FROM payments p JOIN orders o ON o.id = p.order_id`

	eventColumns = `e.id, e.order_id, o.order_number, e.from_status, e.to_status, e.at`
	eventFrom    = `FROM order_status_events e JOIN orders o ON o.id = e.order_id`
)

func scanCategory(row pgx.Row) (*models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Position, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Email, &c.FullName, &c.Phone, &c.DefaultAddress, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// menuItemScan holds the destinations for menuItemColumns. The joined category
// columns are all NULL when the item has none.
type menuItemScan struct {
	item       models.MenuItem
	catID      *int64
	catName    *string
	catDesc    *string
	catPos     *int
	catActive  *bool
	catCreated *time.Time
	catUpdated *time.Time
}

func (s *menuItemScan) dest() []any {
	m := &s.item
	return []any{
		&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.PriceCents, &m.ImageURL,
		&m.IsAvailable, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
		&s.catID, &s.catName, &s.catDesc, &s.catPos, &s.catActive, &s.catCreated, &s.catUpdated,
	}
}

func (s *menuItemScan) result() models.MenuItem {
	m := s.item
	if s.catID != nil {
		m.Category = &models.Category{
			ID:          *s.catID,
			Name:        deref(s.catName),
			Description: deref(s.catDesc),
			Position:    deref(s.catPos),
			IsActive:    deref(s.catActive),
			CreatedAt:   deref(s.catCreated),
			UpdatedAt:   deref(s.catUpdated),
		}
	}
	return m
}

func scanMenuItem(row pgx.Row) (*models.MenuItem, error) {
	var s menuItemScan
	if err := row.Scan(s.dest()...); err != nil {
		return nil, err
	}
	m := s.result()
	return &m, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Status, &o.SpecialInstructions, &o.SubtotalCents,
		&o.TaxCents, &o.DeliveryFeeCents, &o.TotalCents, &o.ETA, &o.CustomerID,
		&o.CustomerName, &o.CustomerEmail, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.OrderNumber, &p.Method, &p.AmountCents, &p.Currency,
		&p.Status, &p.ProcessorRef, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanEvent(row pgx.Row) (*models.OrderStatusEvent, error) {
	var e models.OrderStatusEvent
	if err := row.Scan(&e.ID, &e.OrderID, &e.OrderNumber, &e.FromStatus, &e.ToStatus, &e.At); err != nil {
		return nil, err
	}
	return &e, nil
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
