package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
)

// SessionService is the session registry. Sessions are persisted only;
// nothing about them is cached between requests.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	newID       func() string
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, opts ...Option) *SessionService {
	o := applyOptions(opts)
	return &SessionService{
		db:          db,
		repomanager: m,
		now:         o.now,
		newID:       o.newID,
	}
}

// Create records a new session for userID and returns its uuid.
func (s *SessionService) Create(ctx context.Context, userID int64, clientName, ip string) (string, error) {
	now := s.now()
	session := &models.Session{
		UUID:       s.newID(),
		UserID:     userID,
		ClientName: clientName,
		IP:         ip,
		CreatedAt:  now,
		LastActive: now,
	}

	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return "", fmt.Errorf("error creating session: %w", err)
	}
	return session.UUID, nil
}

// Touch stamps the session and its user with the same last-active time in
// one transaction. common.ErrorNotFound when either row is missing or the
// session belongs to another user.
func (s *SessionService) Touch(ctx context.Context, uuid string, userID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sessions := s.repomanager.Sessions(tx)
		users := s.repomanager.Users(tx)

		if _, err := sessions.Find(ctx, uuid, userID); err != nil {
			return err
		}
		if _, err := users.GetByID(ctx, userID); err != nil {
			return err
		}

		now := s.now()
		if err := sessions.Touch(ctx, uuid, now); err != nil {
			return err
		}
		return users.TouchLastActive(ctx, userID, now)
	})
}

// Exists reports whether a session with uuid belongs to userID.
func (s *SessionService) Exists(ctx context.Context, uuid string, userID int64) (bool, error) {
	return s.repomanager.Sessions(s.db).Exists(ctx, uuid, userID)
}
