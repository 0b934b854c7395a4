package postgres

import (
	"context"

	"food-order-backend/internal/admin"
	"food-order-backend/internal/models"
)

func (db *DB) ListCustomers(ctx context.Context, f admin.CustomerFilter) ([]models.Customer, error) {
	var w where
	if f.IsActive != nil {
		w.and("is_active = " + w.arg(*f.IsActive))
	}
	w.search(f.Search, "full_name", "email")

	query := `SELECT ` + customerColumns + ` FROM customers` + w.String() +
		` ORDER BY created_at DESC, id DESC` + w.page(f.Page)
	rows, err := db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError(err, "query customers")
	}
	out, err := collect(rows, scanCustomer)
	return out, mapError(err, "scan customers")
}

func (db *DB) CustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	c, err := scanCustomer(db.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "load customer")
	}
	return c, nil
}

func (db *DB) CreateCustomer(ctx context.Context, c *models.Customer) error {
	err := db.pool.QueryRow(ctx, `
		INSERT INTO customers (email, full_name, phone, default_address, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		c.Email, c.FullName, c.Phone, c.DefaultAddress, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err, "insert customer")
}

func (db *DB) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	err := db.pool.QueryRow(ctx, `
		UPDATE customers
		SET email = $2, full_name = $3, phone = $4, default_address = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Email, c.FullName, c.Phone, c.DefaultAddress, c.IsActive,
	).Scan(&c.UpdatedAt)
	return mapError(err, "update customer")
}

func (db *DB) ListCategories(ctx context.Context, f admin.CategoryFilter) ([]models.Category, error) {
	var w where
	w.search(f.Search, "name")

	query := `SELECT ` + categoryColumns + ` FROM categories` + w.String() +
		` ORDER BY position, name` + w.page(f.Page)
	rows, err := db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError(err, "query categories")
	}
	out, err := collect(rows, scanCategory)
	return out, mapError(err, "scan categories")
}

func (db *DB) CategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(db.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "load category")
	}
	return c, nil
}

func (db *DB) CreateCategory(ctx context.Context, c *models.Category) error {
	err := db.pool.QueryRow(ctx, `
		INSERT INTO categories (name, description, position, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Description, c.Position, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err, "insert category")
}

func (db *DB) UpdateCategory(ctx context.Context, c *models.Category) error {
	err := db.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, description = $3, position = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Description, c.Position, c.IsActive,
	).Scan(&c.UpdatedAt)
	return mapError(err, "update category")
}

func (db *DB) ListMenuItems(ctx context.Context, f admin.MenuItemFilter) ([]models.MenuItem, error) {
	var w where
	if f.CategoryID != nil {
		w.and("m.category_id = " + w.arg(*f.CategoryID))
	}
	if f.IsAvailable != nil {
		w.and("m.is_available = " + w.arg(*f.IsAvailable))
	}
	if f.IsActive != nil {
		w.and("m.is_active = " + w.arg(*f.IsActive))
	}
	w.search(f.Search, "m.name", "c.name")

	query := `SELECT ` + menuItemColumns + ` ` + menuItemFrom + w.String() +
		` ORDER BY c.position, m.name` + w.page(f.Page)
	rows, err := db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError(err, "query menu items")
	}
	out, err := collect(rows, scanMenuItem)
	return out, mapError(err, "scan menu items")
}

func (db *DB) MenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	m, err := scanMenuItem(db.pool.QueryRow(ctx, `SELECT `+menuItemColumns+` `+menuItemFrom+` WHERE m.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "load menu item")
	}
	return m, nil
}

func (db *DB) CreateMenuItem(ctx context.Context, m *models.MenuItem) error {
	err := db.pool.QueryRow(ctx, `
		INSERT INTO menu_items (category_id, name, description, price_cents, image_url, is_available, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		m.CategoryID, m.Name, m.Description, m.PriceCents, m.ImageURL, m.IsAvailable, m.IsActive,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return mapError(err, "insert menu item")
}

func (db *DB) UpdateMenuItem(ctx context.Context, m *models.MenuItem) error {
	err := db.pool.QueryRow(ctx, `
		UPDATE menu_items
		SET category_id = $2, name = $3, description = $4, price_cents = $5, image_url = $6,
			is_available = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.CategoryID, m.Name, m.Description, m.PriceCents, m.ImageURL, m.IsAvailable, m.IsActive,
	).Scan(&m.UpdatedAt)
	return mapError(err, "update menu item")
}

func (db *DB) ListOrders(ctx context.Context, f admin.OrderFilter) ([]models.Order, error) {
	var w where
	if f.Status != "" {
		w.and("o.status = " + w.arg(f.Status))
	}
	if f.CreatedFrom != nil {
		w.and("o.created_at >= " + w.arg(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		w.and("o.created_at <= " + w.arg(*f.CreatedTo))
	}
	w.search(f.Search, "o.order_number", "cu.full_name", "cu.email")

	query := `SELECT ` + orderColumns + ` ` + orderFrom + w.String() +
		` ORDER BY o.created_at DESC, o.id DESC` + w.page(f.Page)
	rows, err := db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError(err, "query orders")
	}
	out, err := collect(rows, scanOrder)
	return out, mapError(err, "scan orders")
}

func (db *DB) ListPayments(ctx context.Context, f admin.PaymentFilter) ([]models.Payment, error) {
	var w where
	if f.Status != "" {
		w.and("p.status = " + w.arg(f.Status))
	}
	if f.Method != "" {
		w.and("p.method = " + w.arg(f.Method))
	}

	query := `SELECT ` + paymentColumns + ` ` + paymentFrom + w.String() +
		` ORDER BY p.created_at DESC, p.id DESC` + w.page(f.Page)
	rows, err := db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError(err, "query payments")
	}
	out, err := collect(rows, scanPayment)
	return out, mapError(err, "scan payments")
}

func (db *DB) PaymentByID(ctx context.Context, id int64) (*models.Payment, error) {
	p, err := scanPayment(db.pool.QueryRow(ctx, `SELECT `+paymentColumns+` `+paymentFrom+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "load payment")
	}
	return p, nil
}

func (db *DB) UpdatePayment(ctx context.Context, p *models.Payment) error {
	err := db.pool.QueryRow(ctx, `
		UPDATE payments SET status = $2, processor_ref = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Status, p.ProcessorRef,
	).Scan(&p.UpdatedAt)
	return mapError(err, "update payment")
}

func (db *DB) ListStatusEvents(ctx context.Context, f admin.EventFilter) ([]models.OrderStatusEvent, error) {
	var w where
	if f.FromStatus != "" {
		w.and("e.from_status = " + w.arg(f.FromStatus))
	}
	if f.ToStatus != "" {
		w.and("e.to_status = " + w.arg(f.ToStatus))
	}
	w.search(f.Search, "o.order_number")

	query := `SELECT ` + eventColumns + ` ` + eventFrom + w.String() +
		` ORDER BY e.at DESC, e.id DESC` + w.page(f.Page)
	rows, err := db.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError(err, "query status events")
	}
	out, err := collect(rows, scanEvent)
	return out, mapError(err, "scan status events")
}
