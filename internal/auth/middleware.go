package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"food-order-backend/internal/models"
)

const (
	detailNotAuthenticated = "Authentication credentials were not provided."
	detailInvalidToken     = "Invalid or expired token."
	detailForbidden        = "You do not have permission to perform this action."
)

type ctxKey int

const (
	userKey ctxKey = iota
	claimsKey
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *Claims, error)
}

type Middleware struct {
	auth Authenticator
}

func NewMiddleware(auth Authenticator) *Middleware {
	return &Middleware{auth: auth}
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

func WithUser(ctx context.Context, u *models.User, c *Claims) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, claimsKey, c)
}

// Authenticate attaches the bearer token's user to the request. Requests
// without an Authorization header pass through anonymously; a malformed or
// rejected token is a 401.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return m.authenticate(next, true)
}

// Optional is Authenticate without the 401: a malformed, expired or revoked
// token leaves the request anonymous.
func (m *Middleware) Optional(next http.HandlerFunc) http.HandlerFunc {
	return m.authenticate(next, false)
}

func (m *Middleware) authenticate(next http.HandlerFunc, strict bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next(w, r)
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			if !strict {
				next(w, r)
				return
			}
			writeDetail(w, http.StatusUnauthorized, detailInvalidToken)
			return
		}

		user, claims, err := m.auth.Authenticate(r.Context(), parts[1])
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				if !strict {
					next(w, r)
					return
				}
				slog.Warn("Invalid token attempt", "error", err)
				writeDetail(w, http.StatusUnauthorized, detailInvalidToken)
				return
			}
			slog.Error("Token check failed", "error", err)
			writeDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		next(w, r.WithContext(WithUser(r.Context(), user, claims)))
	}
}

func (m *Middleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
			return
		}
		next(w, r)
	})
}

func (m *Middleware) RequireStaff(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		if u, _ := UserFromContext(r.Context()); !u.IsStaff {
			slog.Warn("Staff access denied", "user_id", u.ID, "path", r.URL.Path)
			writeDetail(w, http.StatusForbidden, detailForbidden)
			return
		}
		next(w, r)
	})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
