// Package sessions declares and implements persistence for login sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error

	// Find returns the session with the given uuid that belongs to userID,
	// or common.ErrorNotFound.
	Find(ctx context.Context, uuid string, userID int64) (*models.Session, error)

	Exists(ctx context.Context, uuid string, userID int64) (bool, error)

	// Touch sets last_active; common.ErrorNotFound when no row matched.
	Touch(ctx context.Context, uuid string, at time.Time) error
}
