package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestClient_GetSetDelete(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "menu:categories")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "menu:categories", []byte(`[]`), time.Minute))
	got, err := c.Get(ctx, "menu:categories")
	require.NoError(t, err)
	require.Equal(t, []byte(`[]`), got)

	ok, err := c.Exists(ctx, "menu:categories")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Delete(ctx, "menu:categories"))
	_, err = c.Get(ctx, "menu:categories")
	require.ErrorIs(t, err, ErrMiss)
}

func TestClient_IsRateLimited(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.False(t, c.IsRateLimited(ctx, "orders:10.0.0.1", 3, time.Minute))
	}
	require.True(t, c.IsRateLimited(ctx, "orders:10.0.0.1", 3, time.Minute))
	require.False(t, c.IsRateLimited(ctx, "orders:10.0.0.2", 3, time.Minute))

	mr.FastForward(time.Minute + time.Second)
	require.False(t, c.IsRateLimited(ctx, "orders:10.0.0.1", 3, time.Minute))
}

func TestClient_IsRateLimited_WindowIsFixed(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()
	const key = "ratelimit:orders:10.0.0.3"

	require.False(t, c.IsRateLimited(ctx, "orders:10.0.0.3", 5, time.Minute))
	require.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(40 * time.Second)
	require.False(t, c.IsRateLimited(ctx, "orders:10.0.0.3", 5, time.Minute))
	require.Equal(t, 20*time.Second, mr.TTL(key))

	got, err := mr.Get(key)
	require.NoError(t, err)
	require.Equal(t, "2", got)
}

func TestClient_Ping(t *testing.T) {
	c, mr := newTestClient(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	require.Error(t, c.Ping(context.Background()))
}

func TestClient_IncrAndTTL(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	n, err := c.Incr(ctx, "login:fails:alice", time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = c.Incr(ctx, "login:fails:alice", time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	ttl, err := c.TTL(ctx, "login:fails:alice")
	require.NoError(t, err)
	require.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 1)

	ttl, err = c.TTL(ctx, "missing")
	require.NoError(t, err)
	require.Zero(t, ttl)

	mr.FastForward(2 * time.Hour)
	ok, err := c.Exists(ctx, "login:fails:alice")
	require.NoError(t, err)
	require.False(t, ok)
}
