// Package storetest opens throwaway in-memory stores for tests.
package storetest

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"adspace/internal/database"
	"adspace/internal/store"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Clock hands out strictly increasing timestamps so that ordering by
// created_at is deterministic.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock starts at start and advances by step on every call.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start.UTC(), step: step}
}

// Now returns the next timestamp.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// New returns a migrated SQLite store that lives for the duration of the test.
// A nil clock uses the wall clock.
func New(t testing.TB, clock *Clock) *store.Store {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if clock != nil {
		cfg.NowFunc = clock.Now
	} else {
		cfg.NowFunc = func() time.Time { return time.Now().UTC() }
	}

	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", Conn: sqlDB}, cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return store.NewGorm(db)
}
