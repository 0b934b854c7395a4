package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"food-order-backend/internal/admin"
	"food-order-backend/internal/auth"
	"food-order-backend/internal/models"
	"food-order-backend/internal/orders"
	"food-order-backend/internal/telemetry"
)

const (
	orderRateWindow = time.Minute
	healthTimeout   = 3 * time.Second
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req orders.PlaceOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, number string) (*models.Order, error)
	UpdateStatus(ctx context.Context, number string, status models.OrderStatus) (*models.Order, error)
	ListEvents(ctx context.Context, number string) ([]models.OrderStatusEvent, error)
}

type MenuService interface {
	Categories(ctx context.Context) ([]models.Category, error)
	MenuItems(ctx context.Context, categoryID *int64) ([]models.MenuItem, error)
}

type AuthService interface {
	auth.Authenticator
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type AdminService interface {
	ListCustomers(ctx context.Context, f admin.CustomerFilter) ([]models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	CreateCustomer(ctx context.Context, in admin.CustomerInput) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, in admin.CustomerInput) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	ListCategories(ctx context.Context, f admin.CategoryFilter) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, in admin.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, in admin.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListMenuItems(ctx context.Context, f admin.MenuItemFilter) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, in admin.MenuItemInput) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, in admin.MenuItemInput) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error

	ListOrders(ctx context.Context, f admin.OrderFilter) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)

	ListPayments(ctx context.Context, f admin.PaymentFilter) ([]models.Payment, error)
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	UpdatePayment(ctx context.Context, id int64, in admin.PaymentInput) (*models.Payment, error)

	ListStatusEvents(ctx context.Context, f admin.EventFilter) ([]models.OrderStatusEvent, error)
}

// Pinger is a backing service checked by Health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimiter reports whether key has exceeded max hits inside window.
type RateLimiter interface {
	IsRateLimited(ctx context.Context, key string, max int, window time.Duration) bool
}

type Handler struct {
	orders         OrderService
	menu           MenuService
	auth           AuthService
	admin          AdminService
	limiter        RateLimiter
	orderRateLimit int
	checks         map[string]Pinger
	guard          *auth.Middleware
}

type Deps struct {
	Orders         OrderService
	Menu           MenuService
	Auth           AuthService
	Admin          AdminService
	Limiter        RateLimiter
	OrderRateLimit int
	// Checks are pinged by the health endpoint, keyed by name.
	Checks         map[string]Pinger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		orders:         d.Orders,
		menu:           d.Menu,
		auth:           d.Auth,
		admin:          d.Admin,
		limiter:        d.Limiter,
		orderRateLimit: d.OrderRateLimit,
		checks:         d.Checks,
		guard:          auth.NewMiddleware(d.Auth),
	}
}

// Routes builds the HTTP surface. extra is mounted as-is (e.g. /metrics).
func (h *Handler) Routes(extra map[string]http.Handler) http.Handler {
	mux := http.NewServeMux()
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.Middleware(pattern, fn))
	}

	route("GET /api/health/{$}", h.Health)

	route("GET /api/categories/{$}", h.ListCategories)
	route("GET /api/menu-items/{$}", h.ListMenuItems)

	route("POST /api/orders/{$}", h.PlaceOrder)
	route("GET /api/orders/{order_number}/{$}", h.GetOrder)
	route("PATCH /api/orders/{order_number}/status/{$}", h.guard.RequireStaff(h.UpdateOrderStatus))
	route("GET /api/orders/{order_number}/events/{$}", h.ListOrderEvents)

	route("POST /api/auth/login/{$}", h.Login)
	route("POST /api/auth/logout/{$}", h.guard.Optional(h.Logout))
	route("GET /api/auth/me/{$}", h.guard.RequireUser(h.Me))

	h.adminRoutes(route)

	for pattern, handler := range extra {
		mux.Handle(pattern, handler)
	}

	return RequestLogger(mux)
}

// Health reports 200 when every check answers and 503 naming the failed ones otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "Health check failed", "check", name, "error", err)
			failed[name] = "unavailable"
		}
	}

	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"message": "Server is unhealthy",
			"checks":  failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Server is up!"})
}
