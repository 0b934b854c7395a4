package postgres

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"food-order-backend/internal/admin"
	"food-order-backend/internal/models"
	"food-order-backend/internal/orders"
)

var at = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return &DB{pool: mock}, mock
}

func sql(s string) string { return regexp.QuoteMeta(s) }

func ptr[T any](v T) *T { return &v }

var orderCols = []string{
	"id", "order_number", "status", "special_instructions", "subtotal_cents", "tax_cents",
	"delivery_fee_cents", "total_cents", "eta", "customer_id", "full_name", "email", "created_at", "updated_at",
}

func TestUpsertCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("absent keys keep stored values", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(sql("ON CONFLICT (email) DO UPDATE")).
			WithArgs("ann@example.com", "Ann", (*string)(nil), ptr("1 Main St")).
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "phone", "default_address", "is_active", "created_at", "updated_at"}).
				AddRow(int64(3), "ann@example.com", "Ann", "+1 555 0100", "1 Main St", true, at, at))

		c, err := db.UpsertCustomer(ctx, models.CustomerUpsert{Email: "ann@example.com", FullName: "Ann", Address: ptr("1 Main St")})
		require.NoError(t, err)
		require.Equal(t, int64(3), c.ID)
		require.Equal(t, "+1 555 0100", c.Phone)
		require.Equal(t, "1 Main St", c.DefaultAddress)
	})

	t.Run("present keys overwrite", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(sql("phone = COALESCE($3::text, customers.phone)")).
			WithArgs("ann@example.com", "Ann B", ptr(""), (*string)(nil)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "phone", "default_address", "is_active", "created_at", "updated_at"}).
				AddRow(int64(3), "ann@example.com", "Ann B", "", "1 Main St", true, at, at))

		c, err := db.UpsertCustomer(ctx, models.CustomerUpsert{Email: "ann@example.com", FullName: "Ann B", Phone: ptr("")})
		require.NoError(t, err)
		require.Equal(t, "Ann B", c.FullName)
		require.Empty(t, c.Phone)
	})
}

func newOrder() *models.Order {
	return &models.Order{
		OrderNumber:   "ABC123XYZ0",
		Status:        models.StatusPending,
		CustomerID:    3,
		SubtotalCents: 2500,
		TaxCents:      200,
		TotalCents:    2700,
		CreatedAt:     at,
		UpdatedAt:     at,
		Items:         []models.OrderItem{{MenuItemID: 10, Quantity: 2, UnitPriceCents: 1250}},
		Payment: &models.Payment{
			Method:      models.MethodCard,
			AmountCents: 2700,
			Currency:    models.DefaultCurrency,
			Status:      models.PaymentInitiated,
		},
	}
}

func TestCreateOrder(t *testing.T) {
	db, mock := newMockDB(t)
	o := newOrder()
	first := models.OrderStatusEvent{FromStatus: models.StatusPending, ToStatus: models.StatusPending, At: at}

	mock.ExpectBegin()
	mock.ExpectQuery(sql("INSERT INTO orders")).
		WithArgs("ABC123XYZ0", int64(3), models.StatusPending, "", int64(2500), int64(200), int64(0), int64(2700), pgxmock.AnyArg(), at, at).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(sql("INSERT INTO order_items")).
		WithArgs(int64(7), int64(10), 2, int64(1250), at).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(70), at))
	mock.ExpectQuery(sql("INSERT INTO payments")).
		WithArgs(int64(7), models.MethodCard, int64(2700), "USD", models.PaymentInitiated, "", at).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(700), at, at))
	mock.ExpectQuery(sql("INSERT INTO order_status_events")).
		WithArgs(int64(7), models.StatusPending, models.StatusPending, at).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	require.NoError(t, db.CreateOrder(context.Background(), o, first))
	require.Equal(t, int64(7), o.ID)
	require.Equal(t, int64(70), o.Items[0].ID)
	require.Equal(t, int64(7), o.Items[0].OrderID)
	require.Equal(t, int64(700), o.Payment.ID)
	require.Equal(t, "ABC123XYZ0", o.Payment.OrderNumber)
}

func TestCreateOrder_DuplicateNumber(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(sql("INSERT INTO orders")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"})
	mock.ExpectRollback()

	err := db.CreateOrder(context.Background(), newOrder(), models.OrderStatusEvent{})
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestTransitionStatus(t *testing.T) {
	ctx := context.Background()
	lock := sql("SELECT id, status FROM orders WHERE order_number = $1 FOR UPDATE")
	to := func(next models.OrderStatus) orders.TransitionFunc {
		return func(current models.OrderStatus) (models.OrderStatus, bool, error) {
			return next, current != next, nil
		}
	}

	t.Run("change writes status and one event", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lock).WithArgs("ABC123XYZ0").
			WillReturnRows(pgxmock.NewRows([]string{"id", "status"}).AddRow(int64(7), models.StatusPending))
		mock.ExpectExec(sql("UPDATE orders SET status = $2")).
			WithArgs(int64(7), models.StatusConfirmed, at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectQuery(sql("INSERT INTO order_status_events")).
			WithArgs(int64(7), models.StatusPending, models.StatusConfirmed, at).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectCommit()

		e, err := db.TransitionStatus(ctx, "ABC123XYZ0", to(models.StatusConfirmed), at)
		require.NoError(t, err)
		require.Equal(t, &models.OrderStatusEvent{
			ID: 5, OrderID: 7, OrderNumber: "ABC123XYZ0",
			FromStatus: models.StatusPending, ToStatus: models.StatusConfirmed, At: at,
		}, e)
	})

	t.Run("no change writes nothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lock).WithArgs("ABC123XYZ0").
			WillReturnRows(pgxmock.NewRows([]string{"id", "status"}).AddRow(int64(7), models.StatusReady))
		mock.ExpectCommit()

		e, err := db.TransitionStatus(ctx, "ABC123XYZ0", to(models.StatusReady), at)
		require.NoError(t, err)
		require.Nil(t, e)
	})

	t.Run("refused transition rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lock).WithArgs("ABC123XYZ0").
			WillReturnRows(pgxmock.NewRows([]string{"id", "status"}).AddRow(int64(7), models.StatusCompleted))
		mock.ExpectRollback()

		_, err := db.TransitionStatus(ctx, "ABC123XYZ0", func(current models.OrderStatus) (models.OrderStatus, bool, error) {
			return current, false, fmt.Errorf("%w: %s", orders.ErrTerminalStatus, current)
		}, at)
		require.ErrorIs(t, err, orders.ErrTerminalStatus)
	})

	t.Run("unknown order", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lock).WithArgs("NOPE000000").WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := db.TransitionStatus(ctx, "NOPE000000", to(models.StatusReady), at)
		require.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestOrderByNumber(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(sql("FROM orders o JOIN customers cu ON cu.id = o.customer_id WHERE o.order_number = $1")).
		WithArgs("ABC123XYZ0").
		WillReturnRows(pgxmock.NewRows(orderCols).
			AddRow(int64(7), "ABC123XYZ0", models.StatusConfirmed, "no onions", int64(2950), int64(236), int64(0), int64(3186), nil,
				int64(3), "Ann", "ann@example.com", at, at))

	itemCols := []string{
		"id", "order_id", "menu_item_id", "quantity", "unit_price_cents", "created_at",
		"m.id", "m.category_id", "m.name", "m.description", "m.price_cents", "m.image_url",
		"m.is_available", "m.is_active", "m.created_at", "m.updated_at",
		"c.id", "c.name", "c.description", "c.position", "c.is_active", "c.created_at", "c.updated_at",
	}
	mock.ExpectQuery(sql("FROM order_items oi")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(itemCols).
			AddRow(int64(70), int64(7), int64(10), 2, int64(1250), at,
				int64(10), ptr(int64(1)), "Margherita", "", int64(1250), "", true, true, at, at,
				ptr(int64(1)), ptr("Pizza"), ptr(""), ptr(0), ptr(true), ptr(at), ptr(at)).
			AddRow(int64(71), int64(7), int64(11), 1, int64(450), at,
				int64(11), nil, "Lemonade", "", int64(450), "", true, true, at, at,
				nil, nil, nil, nil, nil, nil, nil))

	mock.ExpectQuery(sql("FROM payments p JOIN orders o ON o.id = p.order_id WHERE p.order_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "order_number", "method", "amount_cents", "currency", "status", "processor_ref", "created_at", "updated_at"}).
			AddRow(int64(700), int64(7), "ABC123XYZ0", models.MethodCard, int64(3186), "USD", models.PaymentInitiated, "", at, at))

	o, err := db.OrderByNumber(context.Background(), "ABC123XYZ0")
	require.NoError(t, err)
	require.Equal(t, "Ann", o.CustomerName)
	require.Nil(t, o.ETA)
	require.Len(t, o.Items, 2)

	require.Equal(t, "Margherita", o.Items[0].MenuItem.Name)
	require.Equal(t, "Pizza", o.Items[0].MenuItem.Category.Name)
	require.Equal(t, "Lemonade", o.Items[1].MenuItem.Name)
	require.Nil(t, o.Items[1].MenuItem.Category)

	require.NotNil(t, o.Payment)
	require.Equal(t, int64(3186), o.Payment.AmountCents)
}

func TestOrderByNumber_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(sql("WHERE o.order_number = $1")).
		WithArgs("NOPE000000").
		WillReturnRows(pgxmock.NewRows(orderCols))

	_, err := db.OrderByNumber(context.Background(), "NOPE000000")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestEventsByOrderNumber(t *testing.T) {
	db, mock := newMockDB(t)
	later := at.Add(time.Minute)

	mock.ExpectQuery(sql("SELECT id FROM orders WHERE order_number = $1")).
		WithArgs("ABC123XYZ0").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(sql("WHERE e.order_id = $1 ORDER BY e.at DESC, e.id DESC")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "order_number", "from_status", "to_status", "at"}).
			AddRow(int64(2), int64(7), "ABC123XYZ0", models.StatusPending, models.StatusConfirmed, later).
			AddRow(int64(1), int64(7), "ABC123XYZ0", models.StatusPending, models.StatusPending, at))

	evs, err := db.EventsByOrderNumber(context.Background(), "ABC123XYZ0")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, models.StatusConfirmed, evs[0].ToStatus)
	require.Equal(t, later, evs[0].At)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	u := &models.User{Username: "boss", PasswordHash: "hash", IsStaff: true, IsSuperuser: true, IsActive: true}

	db, mock := newMockDB(t)
	mock.ExpectQuery(sql("INSERT INTO users")).
		WithArgs("boss", "", "", "", "hash", true, true, true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), at))
	mock.ExpectQuery(sql("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	require.NoError(t, db.CreateUser(ctx, u))
	require.Equal(t, int64(1), u.ID)

	err := db.CreateUser(ctx, &models.User{Username: "boss", PasswordHash: "hash"})
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestListCategories(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(sql("FROM categories WHERE (name ILIKE $1) ORDER BY position, name LIMIT $2 OFFSET $3")).
		WithArgs("%50\\%%", 20, 40).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "position", "is_active", "created_at", "updated_at"}).
			AddRow(int64(1), "50% off", "", 0, true, at, at))

	cats, err := db.ListCategories(context.Background(), admin.CategoryFilter{Search: "50%", Page: admin.Page{Limit: 20, Offset: 40}})
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, "50% off", cats[0].Name)
}

func TestMigrate(t *testing.T) {
	db, mock := newMockDB(t)
	fsys := fstest.MapFS{
		"0001_init.sql":                 {Data: []byte("CREATE TABLE a (id INT);")},
		"20240501120000_add_column.sql": {Data: []byte("ALTER TABLE a ADD COLUMN b INT;")},
	}

	mock.ExpectExec(sql("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery(sql("SELECT migration_name FROM schema_migrations")).
		WillReturnRows(pgxmock.NewRows([]string{"migration_name"}).AddRow("0001_init.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(sql("ALTER TABLE a ADD COLUMN b INT;")).
		WillReturnResult(pgxmock.NewResult("ALTER TABLE", 0))
	mock.ExpectExec(sql("INSERT INTO schema_migrations")).
		WithArgs("20240501120000_add_column.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	applied, err := db.Migrate(context.Background(), fsys)
	require.NoError(t, err)
	require.Equal(t, []string{"20240501120000_add_column.sql"}, applied)
}

func TestPing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))
}
