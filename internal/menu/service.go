package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"food-order-backend/internal/cache"
	"food-order-backend/internal/models"
)

const generationKey = "menu:generation"

type Repository interface {
	ActiveCategories(ctx context.Context) ([]models.Category, error)
	// AvailableMenuItems returns active, available items ordered by category
	// position then name. A nil categoryID means every category.
	AvailableMenuItems(ctx context.Context, categoryID *int64) ([]models.MenuItem, error)
}

// Cache is the subset of the Redis client the menu needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Service serves the public menu. Listings are cached under a generation
// number; Invalidate bumps the generation so stale entries are never read
// again and simply expire.
type Service struct {
	repo  Repository
	store Cache
	ttl   time.Duration
}

func NewService(repo Repository, store Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, store: store, ttl: ttl}
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return cached(ctx, s, "categories", func() ([]models.Category, error) {
		return s.repo.ActiveCategories(ctx)
	})
}

func (s *Service) MenuItems(ctx context.Context, categoryID *int64) ([]models.MenuItem, error) {
	key := "items:all"
	if categoryID != nil {
		key = "items:" + strconv.FormatInt(*categoryID, 10)
	}
	return cached(ctx, s, key, func() ([]models.MenuItem, error) {
		return s.repo.AvailableMenuItems(ctx, categoryID)
	})
}

// Invalidate drops every cached listing.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	_, err := s.store.Incr(ctx, generationKey, 0)
	return err
}

func (s *Service) generation(ctx context.Context) (string, error) {
	data, err := s.store.Get(ctx, generationKey)
	if errors.Is(err, cache.ErrMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func cached[T any](ctx context.Context, s *Service, name string, load func() (T, error)) (T, error) {
	if s.store == nil || s.ttl <= 0 {
		return load()
	}

	gen, err := s.generation(ctx)
	if err != nil {
		slog.Warn("Menu cache unavailable", "error", err)
		return load()
	}
	key := fmt.Sprintf("menu:%s:%s", gen, name)

	if data, err := s.store.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
			slog.Warn("Menu cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}
