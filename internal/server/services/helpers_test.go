package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	clock    *fakeClock
	sessions *SessionService
	users    *UserService
}

// newTestEnv runs the services against a migrated SQLite file.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + filepath.Join(t.TempDir(), "app.db") + "?_pragma=foreign_keys(1)"
	db, err := repomanager.Open(ctx, repomanager.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewSQLRepositoryManager(repomanager.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	clock := newFakeClock()
	cfg := &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: 7 * 24 * time.Hour,
		BcryptCost:                  4,
	}

	sessions := NewSessionService(db, rm, WithClock(clock.Now))
	return &testEnv{
		db:       db,
		rm:       rm,
		clock:    clock,
		sessions: sessions,
		users:    NewUserService(db, rm, sessions, cfg, WithClock(clock.Now)),
	}
}
