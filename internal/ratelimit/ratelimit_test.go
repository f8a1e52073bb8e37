package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, l Limiter) {
	ctx := context.Background()
	key := "ops@example.com"

	for i := 0; i < 3; i++ {
		blocked, _, err := l.Blocked(ctx, key)
		require.NoError(t, err)
		assert.False(t, blocked)
		_, err = l.Hit(ctx, key)
		require.NoError(t, err)
	}

	blocked, retry, err := l.Blocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Greater(t, retry, time.Duration(0))

	require.NoError(t, l.Reset(ctx, key))
	blocked, _, err = l.Blocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestMemoryLimiter(t *testing.T) {
	exercise(t, NewMemory(3, time.Minute))
}

func TestMemoryLimiterWindowExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(1, time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := m.Hit(ctx, "k")
	require.NoError(t, err)
	blocked, _, _ := m.Blocked(ctx, "k")
	assert.True(t, blocked)

	now = now.Add(time.Minute)
	blocked, _, _ = m.Blocked(ctx, "k")
	assert.False(t, blocked)

	n, _ := m.Hit(ctx, "k")
	assert.EqualValues(t, 1, n)
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter(t *testing.T) {
	_, client := newMiniredis(t)
	exercise(t, NewRedis(client, "test:"+uuid.NewString(), 3, time.Minute))
}

func TestRedisLimiterHitSetsWindowOnce(t *testing.T) {
	mr, client := newMiniredis(t)
	l := NewRedis(client, "login", 2, time.Minute)
	ctx := context.Background()

	_, err := l.Hit(ctx, "ops@example.com")
	require.NoError(t, err)
	key := l.key("ops@example.com")
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(20 * time.Second)
	n, err := l.Hit(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 40*time.Second, mr.TTL(key))

	blocked, retry, err := l.Blocked(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, 40*time.Second, retry)

	mr.FastForward(40 * time.Second)
	blocked, _, err = l.Blocked(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestRedisLimiterHitReportsServerErrors(t *testing.T) {
	mr, client := newMiniredis(t)
	l := NewRedis(client, "login", 2, time.Minute)
	mr.SetError("READONLY replica")

	_, err := l.Hit(context.Background(), "ops@example.com")
	assert.Error(t, err)
}
