package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"food-order-backend/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// ThrottledError is returned by Login while the username is cooling down.
type ThrottledError struct {
	Wait time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %ds", e.Seconds())
}

// Seconds rounds the remaining wait up to whole seconds.
func (e *ThrottledError) Seconds() int {
	return int(math.Ceil(e.Wait.Seconds()))
}

type UserStore interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	// CreateUser returns models.ErrConflict when the username is taken.
	CreateUser(ctx context.Context, u *models.User) error
}

// Store is the Redis surface used for throttling and token revocation.
type Store interface {
	Counter
	Exists(ctx context.Context, key string) (bool, error)
}

type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type Service struct {
	users    UserStore
	issuer   *Issuer
	store    Store
	throttle *Throttle
}

func NewService(users UserStore, issuer *Issuer, store Store) *Service {
	return &Service{
		users:    users,
		issuer:   issuer,
		store:    store,
		throttle: NewThrottle(store),
	}
}

func revokedKey(jti string) string { return "auth:revoked:" + jti }

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	verr := models.ValidationError{}
	if username == "" {
		verr.Add("username", "This field is required.")
	}
	if password == "" {
		verr.Add("password", "This field is required.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	wait, err := s.throttle.Wait(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check login throttle: %w", err)
	}
	if wait > 0 {
		return nil, &ThrottledError{Wait: wait}
	}

	user, err := s.users.UserByUsername(ctx, username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || !user.IsActive || !CheckPassword(user.PasswordHash, password) {
		cooldown, err := s.throttle.Failed(ctx, username)
		if err != nil {
			slog.Error("Failed to record login failure", "username", username, "error", err)
		}
		slog.Warn("Login failed", "username", username, "cooldown", cooldown)
		return nil, ErrInvalidCredentials
	}

	if err := s.throttle.Succeeded(ctx, username); err != nil {
		slog.Error("Failed to reset login throttle", "username", username, "error", err)
	}

	token, _, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	slog.Info("User logged in", "user_id", user.ID, "username", user.Username)
	return &LoginResult{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to its active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, *Claims, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.store.Exists(ctx, revokedKey(claims.ID))
	if err != nil {
		return nil, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}

	id, _ := claims.UserID()
	user, err := s.users.UserByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: inactive user", ErrInvalidToken)
	}
	return user, claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.store.Set(ctx, revokedKey(claims.ID), []byte("1"), ttl)
}

func (s *Service) CreateSuperuser(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	verr := models.ValidationError{}
	if username == "" {
		verr.Add("username", "This field is required.")
	} else if models.TooLong(username, models.MaxUsernameLen) {
		verr.Add("username", fmt.Sprintf("Ensure this field has no more than %d characters.", models.MaxUsernameLen))
	}
	if email != "" {
		if models.TooLong(email, models.MaxEmailLen) {
			verr.Add("email", fmt.Sprintf("Ensure this field has no more than %d characters.", models.MaxEmailLen))
		} else if !models.ValidEmail(email) {
			verr.Add("email", "Enter a valid email address.")
		}
	}
	if len(password) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLen))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		IsStaff:      true,
		IsSuperuser:  true,
		IsActive:     true,
		PasswordHash: hash,
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, models.ErrConflict) {
		return nil, models.NewValidationError("username", "A user with that username already exists.")
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
