package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	sessionsrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUser(t *testing.T, env *testEnv, name, email string) *models.User {
	t.Helper()
	u, err := env.rm.Users(env.db).Create(context.Background(), &models.User{
		Email: email, Name: name, PasswordHash: "h", IsActivated: true,
	})
	require.NoError(t, err)
	return u
}

func TestSessionService_CreateTouchExists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := createUser(t, env, "alice", "a@x.com")

	id, err := env.sessions.Create(ctx, u.ID, "web", "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s, err := env.rm.Sessions(env.db).Find(ctx, id, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "web", s.ClientName)
	assert.Equal(t, "10.0.0.1", s.IP)
	assert.True(t, s.CreatedAt.Equal(s.LastActive))

	ok, err := env.sessions.Exists(ctx, id, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	env.clock.Advance(time.Hour)
	require.NoError(t, env.sessions.Touch(ctx, id, u.ID))

	s, err = env.rm.Sessions(env.db).Find(ctx, id, u.ID)
	require.NoError(t, err)
	got, err := env.rm.Users(env.db).GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastActive)
	assert.True(t, env.clock.Now().Equal(s.LastActive))
	assert.True(t, s.LastActive.Equal(*got.LastActive))
}

func TestSessionService_CreateUsesIDGenerator(t *testing.T) {
	env := newTestEnv(t)
	u := createUser(t, env, "alice", "a@x.com")

	svc := NewSessionService(env.db, env.rm, WithIDGenerator(func() string { return "fixed" }))
	id, err := svc.Create(context.Background(), u.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	_, err = svc.Create(context.Background(), u.ID, "", "")
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestSessionService_TouchNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := createUser(t, env, "alice", "a@x.com")
	bob := createUser(t, env, "bob", "b@y.com")

	id, err := env.sessions.Create(ctx, alice.ID, "cli", "")
	require.NoError(t, err)

	require.ErrorIs(t, env.sessions.Touch(ctx, "missing", alice.ID), common.ErrorNotFound)
	// a session is only valid for the user it was created for
	require.ErrorIs(t, env.sessions.Touch(ctx, id, bob.ID), common.ErrorNotFound)

	ok, err := env.sessions.Exists(ctx, id, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// bob's last_active is untouched
	got, err := env.rm.Users(env.db).GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastActive)
}

func TestSessionService_ConcurrentTouch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := createUser(t, env, "alice", "a@x.com")

	id, err := env.sessions.Create(ctx, u.ID, "cli", "")
	require.NoError(t, err)

	// every call to the clock returns a later instant
	var mu sync.Mutex
	tick := env.clock.Now()
	svc := NewSessionService(env.db, env.rm, WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Touch(ctx, id, u.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	s, err := env.rm.Sessions(env.db).Find(ctx, id, u.ID)
	require.NoError(t, err)
	got, err := env.rm.Users(env.db).GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastActive)
	assert.True(t, s.LastActive.Equal(*got.LastActive), "session %v, user %v", s.LastActive, *got.LastActive)
}

// --- transaction behaviour with fakes ---

type fakeSessionsRepo struct {
	findErr  error
	touchErr error
	touched  int
}

func (f *fakeSessionsRepo) Create(context.Context, *models.Session) error { return nil }
func (f *fakeSessionsRepo) Find(ctx context.Context, uuid string, userID int64) (*models.Session, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return &models.Session{UUID: uuid, UserID: userID}, nil
}
func (f *fakeSessionsRepo) Exists(context.Context, string, int64) (bool, error) { return true, nil }
func (f *fakeSessionsRepo) Touch(context.Context, string, time.Time) error {
	f.touched++
	return f.touchErr
}

type fakeUsersRepo struct {
	usersrepo.Repository
	getErr   error
	touchErr error
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.User{ID: id}, nil
}
func (f *fakeUsersRepo) TouchLastActive(context.Context, int64, time.Time) error { return f.touchErr }

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.u }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessionsrepo.Repository    { return m.s }

func TestSessionService_TouchTransaction(t *testing.T) {
	tests := []struct {
		name        string
		sessions    *fakeSessionsRepo
		users       *fakeUsersRepo
		wantErr     error
		wantCommit  bool
		wantTouched int
	}{
		{
			name:        "both stamped",
			sessions:    &fakeSessionsRepo{},
			users:       &fakeUsersRepo{},
			wantCommit:  true,
			wantTouched: 1,
		},
		{
			name:     "session missing",
			sessions: &fakeSessionsRepo{findErr: common.ErrorNotFound},
			users:    &fakeUsersRepo{},
			wantErr:  common.ErrorNotFound,
		},
		{
			name:     "user missing",
			sessions: &fakeSessionsRepo{},
			users:    &fakeUsersRepo{getErr: common.ErrorNotFound},
			wantErr:  common.ErrorNotFound,
		},
		{
			name:        "user stamp fails after session stamp",
			sessions:    &fakeSessionsRepo{},
			users:       &fakeUsersRepo{touchErr: errors.New("disk full")},
			wantErr:     errors.New("disk full"),
			wantTouched: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			if tt.wantCommit {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			svc := NewSessionService(db, &fakeRepoManager{u: tt.users, s: tt.sessions})
			err = svc.Touch(context.Background(), "s-1", 7)

			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
			case errors.Is(tt.wantErr, common.ErrorNotFound):
				require.ErrorIs(t, err, common.ErrorNotFound)
			default:
				require.EqualError(t, err, fmt.Sprint(tt.wantErr))
			}
			assert.Equal(t, tt.wantTouched, tt.sessions.touched)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
