package auth

import (
	"context"
	"math"
	"time"
)

const (
	cooldownCapSeconds = 30
	failWindow         = time.Hour
)

// Counter is the subset of the Redis client the throttle needs.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, keys ...string) error
}

// CooldownForFailCount returns min(30, 2^failCount) seconds.
func CooldownForFailCount(failCount int) time.Duration {
	s := math.Pow(2, float64(failCount))
	if s > cooldownCapSeconds {
		s = cooldownCapSeconds
	}
	return time.Duration(s) * time.Second
}

// Throttle tracks failed logins per username. Each failure starts a cooldown
// during which further attempts are refused; a success clears both.
type Throttle struct {
	store Counter
}

func NewThrottle(store Counter) *Throttle {
	return &Throttle{store: store}
}

func failKey(username string) string     { return "login:fails:" + username }
func cooldownKey(username string) string { return "login:cooldown:" + username }

// Wait returns how long username must wait before trying again, zero if not throttled.
func (t *Throttle) Wait(ctx context.Context, username string) (time.Duration, error) {
	return t.store.TTL(ctx, cooldownKey(username))
}

func (t *Throttle) Failed(ctx context.Context, username string) (time.Duration, error) {
	n, err := t.store.Incr(ctx, failKey(username), failWindow)
	if err != nil {
		return 0, err
	}
	cooldown := CooldownForFailCount(int(n))
	if err := t.store.Set(ctx, cooldownKey(username), []byte("1"), cooldown); err != nil {
		return 0, err
	}
	return cooldown, nil
}

func (t *Throttle) Succeeded(ctx context.Context, username string) error {
	return t.store.Delete(ctx, failKey(username), cooldownKey(username))
}
