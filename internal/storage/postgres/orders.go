package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"food-order-backend/internal/models"
	"food-order-backend/internal/orders"
)

func (db *DB) MenuItemsByIDs(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+menuItemColumns+` `+menuItemFrom+` WHERE m.id = ANY($1)`, ids)
	if err != nil {
		return nil, mapError(err, "query menu items")
	}
	items, err := collect(rows, scanMenuItem)
	if err != nil {
		return nil, mapError(err, "scan menu items")
	}

	out := make(map[int64]models.MenuItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// UpsertCustomer creates the customer or refreshes the fields present in the
// request. full_name is always present here; phone and address only when sent.
func (db *DB) UpsertCustomer(ctx context.Context, in models.CustomerUpsert) (*models.Customer, error) {
	row := db.pool.QueryRow(ctx, `
		INSERT INTO customers (email, full_name, phone, default_address)
		VALUES ($1, $2, COALESCE($3::text, ''), COALESCE($4::text, ''))
		ON CONFLICT (email) DO UPDATE SET
			full_name = CASE WHEN EXCLUDED.full_name <> '' THEN EXCLUDED.full_name ELSE customers.full_name END,
			phone = COALESCE($3::text, customers.phone),
			default_address = COALESCE($4::text, customers.default_address),
			updated_at = NOW()
		RETURNING `+customerColumns,
		in.Email, in.FullName, in.Phone, in.Address,
	)
	c, err := scanCustomer(row)
	if err != nil {
		return nil, mapError(err, "upsert customer")
	}
	return c, nil
}

func (db *DB) CreateOrder(ctx context.Context, o *models.Order, first models.OrderStatusEvent) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (order_number, customer_id, status, special_instructions, subtotal_cents,
				tax_cents, delivery_fee_cents, total_cents, eta, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			o.OrderNumber, o.CustomerID, o.Status, o.SpecialInstructions, o.SubtotalCents,
			o.TaxCents, o.DeliveryFeeCents, o.TotalCents, o.ETA, o.CreatedAt, o.UpdatedAt,
		).Scan(&o.ID)
		if err != nil {
			return mapError(err, "insert order")
		}

		for i := range o.Items {
			it := &o.Items[i]
			it.OrderID = o.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price_cents, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $5)
				RETURNING id, created_at`,
				o.ID, it.MenuItemID, it.Quantity, it.UnitPriceCents, o.CreatedAt,
			).Scan(&it.ID, &it.CreatedAt)
			if err != nil {
				return mapError(err, "insert order item")
			}
		}

		if p := o.Payment; p != nil {
			p.OrderID = o.ID
			p.OrderNumber = o.OrderNumber
			err := tx.QueryRow(ctx, `
				INSERT INTO payments (order_id, method, amount_cents, currency, status, processor_ref, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
				RETURNING id, created_at, updated_at`,
				o.ID, p.Method, p.AmountCents, p.Currency, p.Status, p.ProcessorRef, o.CreatedAt,
			).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
			if err != nil {
				return mapError(err, "insert payment")
			}
		}

		_, err = insertEvent(ctx, tx, o.ID, first.FromStatus, first.ToStatus, first.At)
		return err
	})
}

func insertEvent(ctx context.Context, q querier, orderID int64, from, to models.OrderStatus, at time.Time) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO order_status_events (order_id, from_status, to_status, at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4, $4)
		RETURNING id`,
		orderID, from, to, at,
	).Scan(&id)
	return id, mapError(err, "insert status event")
}

func (db *DB) OrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	return db.loadOrder(ctx, `o.order_number = $1`, number)
}

func (db *DB) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	return db.loadOrder(ctx, `o.id = $1`, id)
}

func (db *DB) loadOrder(ctx context.Context, cond string, arg any) (*models.Order, error) {
	o, err := scanOrder(db.pool.QueryRow(ctx, `SELECT `+orderColumns+` `+orderFrom+` WHERE `+cond, arg))
	if err != nil {
		return nil, mapError(err, "load order")
	}

	rows, err := db.pool.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.menu_item_id, oi.quantity, oi.unit_price_cents, oi.created_at, `+menuItemColumns+`
		FROM order_items oi
		JOIN menu_items m ON m.id = oi.menu_item_id
		LEFT JOIN categories c ON c.id = m.category_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, o.ID)
	if err != nil {
		return nil, mapError(err, "query order items")
	}
	defer rows.Close()

	o.Items = []models.OrderItem{}
	for rows.Next() {
		var (
			it models.OrderItem
			mi menuItemScan
		)
		dest := append([]any{&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity, &it.UnitPriceCents, &it.CreatedAt}, mi.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, mapError(err, "scan order item")
		}
		m := mi.result()
		it.MenuItem = &m
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "scan order items")
	}

	p, err := scanPayment(db.pool.QueryRow(ctx, `SELECT `+paymentColumns+` `+paymentFrom+` WHERE p.order_id = $1`, o.ID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, mapError(err, "load payment")
	default:
		o.Payment = p
	}

	return o, nil
}

func (db *DB) TransitionStatus(ctx context.Context, number string, fn orders.TransitionFunc, at time.Time) (*models.OrderStatusEvent, error) {
	var event *models.OrderStatusEvent

	err := db.inTx(ctx, func(tx pgx.Tx) error {
		var (
			id      int64
			current models.OrderStatus
		)
		err := tx.QueryRow(ctx, `SELECT id, status FROM orders WHERE order_number = $1 FOR UPDATE`, number).Scan(&id, &current)
		if err != nil {
			return mapError(err, "lock order")
		}

		next, changed, err := fn(current)
		if err != nil || !changed {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, next, at); err != nil {
			return mapError(err, "update order status")
		}

		eventID, err := insertEvent(ctx, tx, id, current, next, at)
		if err != nil {
			return err
		}
		event = &models.OrderStatusEvent{
			ID:          eventID,
			OrderID:     id,
			OrderNumber: number,
			FromStatus:  current,
			ToStatus:    next,
			At:          at,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (db *DB) EventsByOrderNumber(ctx context.Context, number string) ([]models.OrderStatusEvent, error) {
	var id int64
	if err := db.pool.QueryRow(ctx, `SELECT id FROM orders WHERE order_number = $1`, number).Scan(&id); err != nil {
		return nil, mapError(err, "load order")
	}

	rows, err := db.pool.Query(ctx, `SELECT `+eventColumns+` `+eventFrom+` WHERE e.order_id = $1 ORDER BY e.at DESC, e.id DESC`, id)
	if err != nil {
		return nil, mapError(err, "query status events")
	}
	events, err := collect(rows, scanEvent)
	return events, mapError(err, "scan status events")
}
