// Package ratelimit counts failed attempts per key inside a fixed window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"adspace/internal/config"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter tracks failures per key. A key is blocked once it reaches the
// maximum number of failures and stays blocked until its window expires.
type Limiter interface {
	Blocked(ctx context.Context, key string) (bool, time.Duration, error)
	Hit(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// New returns a Redis backed limiter when an address is configured and an
// in-process one otherwise.
func New(ctx context.Context, rc *config.RedisConfig, rl *config.RateLimitConfig, log *zap.Logger) (Limiter, func() error, error) {
	if rc.Addr == "" {
		log.Info("login throttle uses in-process counters")
		return NewMemory(rl.LoginMaxAttempts, rl.LoginWindow), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrapf(err, "failed to connect to redis at %s", rc.Addr)
	}
	log.Info("login throttle uses redis", zap.String("addr", rc.Addr))
	return NewRedis(client, "login", rl.LoginMaxAttempts, rl.LoginWindow), client.Close, nil
}

// Redis keeps counters in Redis so that all API instances share them.
type Redis struct {
	client redis.UniversalClient
	prefix string
	max    int64
	window time.Duration
}

func NewRedis(client redis.UniversalClient, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, max: int64(limit), window: window}
}

func (r *Redis) key(k string) string { return r.prefix + ":" + k }

func (r *Redis) Blocked(ctx context.Context, key string) (bool, time.Duration, error) {
	n, err := r.client.Get(ctx, r.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, errors.Wrap(err, "failed to read attempt counter")
	}
	if n < r.max {
		return false, 0, nil
	}
	ttl, err := r.client.TTL(ctx, r.key(key)).Result()
	if err != nil || ttl <= 0 {
		return true, r.window, nil
	}
	return true, ttl, nil
}

func (r *Redis) Hit(ctx context.Context, key string) (int64, error) {
	k := r.key(key)
	// The first failure in the window starts the clock. NX keeps later hits
	// from extending it, and the transaction keeps a counter from being left
	// without an expiry.
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, r.window)
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to increment attempt counter")
	}
	return incr.Val(), nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return errors.Wrap(err, "failed to reset attempt counter")
	}
	return nil
}

type counter struct {
	n       int64
	expires time.Time
}

// Memory is a single-process Limiter.
type Memory struct {
	mu       sync.Mutex
	counters map[string]counter
	max      int64
	window   time.Duration
	now      func() time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{counters: map[string]counter{}, max: int64(limit), window: window, now: time.Now}
}

func (m *Memory) current(key string) counter {
	c, ok := m.counters[key]
	if ok && !m.now().Before(c.expires) {
		delete(m.counters, key)
		return counter{}
	}
	return c
}

func (m *Memory) Blocked(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.current(key)
	if c.n < m.max {
		return false, 0, nil
	}
	return true, c.expires.Sub(m.now()), nil
}

func (m *Memory) Hit(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.current(key)
	if c.n == 0 {
		c.expires = m.now().Add(m.window)
	}
	c.n++
	m.counters[key] = c
	return c.n, nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counters, key)
	return nil
}
