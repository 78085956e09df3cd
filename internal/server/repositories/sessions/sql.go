package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, s *models.Session) error {
	query :=
		`INSERT INTO sessions (uuid, user_id, client_name, ip, created_at, last_active)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		s.UUID, s.UserID, s.ClientName, s.IP, s.CreatedAt, s.LastActive)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Find(ctx context.Context, uuid string, userID int64) (*models.Session, error) {
	query :=
		`SELECT uuid, user_id, client_name, ip, created_at, last_active FROM sessions
		 WHERE uuid = $1 AND user_id = $2`

	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, uuid, userID).Scan(
		&s.UUID, &s.UserID, &s.ClientName, &s.IP, &s.CreatedAt, &s.LastActive)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SQLRepository) Exists(ctx context.Context, uuid string, userID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM sessions WHERE uuid = $1 AND user_id = $2)`

	var found bool
	if err := r.db.QueryRowContext(ctx, query, uuid, userID).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *SQLRepository) Touch(ctx context.Context, uuid string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_active = $1 WHERE uuid = $2`, at, uuid)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
