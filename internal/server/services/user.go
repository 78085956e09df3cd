package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/cryptox"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
)

// bcrypt ignores everything past 72 bytes and x/crypto rejects it outright.
const maxPasswordLen = 72

// Token is the bearer token handed to clients.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type LoginRequest struct {
	Username string
	Password string
	ClientID string
	IP       string
}

type CreateAccountRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// UserService is the auth coordinator: it creates accounts, logs users in,
// and turns bearer tokens back into users.
//
// Credential, token and session failures all come back as
// common.ErrorUnauthorized. The token error is wrapped alongside, so
// errors.Is(err, common.ErrTokenExpired) still works.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	codec       *auth.Codec
	hasher      *cryptox.Hasher
	tokenTTL    time.Duration

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService, cfg *config.Config, opts ...Option) *UserService {
	if cfg.BcryptCost != 0 {
		opts = append([]Option{WithHasher(cryptox.NewHasher(cfg.BcryptCost))}, opts...)
	}
	o := applyOptions(opts)
	return &UserService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		codec:       auth.NewCodec([]byte(cfg.SecretKey), auth.WithClock(o.now)),
		hasher:      o.hasher,
		tokenTTL:    cfg.AccessTokenValidityDuration,
	}
}

func unauthorized(err error) error {
	return fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
}

func internalErr(err error) error {
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}

// Login checks the password and opens a session. An unknown user and a wrong
// password fail the same way.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*Token, error) {
	user, err := s.GetUser(ctx, req.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep the response time of unknown users close to a real check
			s.hasher.Verify(req.Password, s.dummy())
			return nil, common.ErrorUnauthorized
		}
		return nil, internalErr(err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	sessionUUID, err := s.sessions.Create(ctx, user.ID, req.ClientID, req.IP)
	if err != nil {
		return nil, internalErr(err)
	}

	return s.issue(auth.Subject{SessionUUID: sessionUUID, UserID: user.ID})
}

// Authenticate resolves a bearer token to its user and stamps the session
// and user as active.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Subject, error) {
	sub, err := s.decode(token)
	if err != nil {
		return nil, nil, err
	}

	if err := s.sessions.Touch(ctx, sub.SessionUUID, sub.UserID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, unauthorized(err)
		}
		return nil, nil, internalErr(err)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, sub.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, unauthorized(err)
		}
		return nil, nil, internalErr(err)
	}
	return user, sub, nil
}

// RenewToken re-issues a valid token for the same session with a full new
// validity window. The session must still exist.
func (s *UserService) RenewToken(ctx context.Context, token string) (*Token, error) {
	sub, err := s.decode(token)
	if err != nil {
		return nil, err
	}

	ok, err := s.sessions.Exists(ctx, sub.SessionUUID, sub.UserID)
	if err != nil {
		return nil, internalErr(err)
	}
	if !ok {
		return nil, unauthorized(common.ErrorNotFound)
	}

	return s.issue(*sub)
}

// GetUser looks nameOrEmail up as an email when it parses as one, then as a
// name. An email-shaped string that matches no email is still tried as a
// name, since names are free-form.
func (s *UserService) GetUser(ctx context.Context, nameOrEmail string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	if isEmail(nameOrEmail) {
		user, err := repo.GetByEmail(ctx, nameOrEmail)
		if err == nil || !errors.Is(err, common.ErrorNotFound) {
			return user, err
		}
	}
	return repo.GetByName(ctx, nameOrEmail)
}

func (s *UserService) IsNameExist(ctx context.Context, name string) (bool, error) {
	return s.repomanager.Users(s.db).ExistsByName(ctx, name)
}

func (s *UserService) IsEmailExist(ctx context.Context, email string) (bool, error) {
	return s.repomanager.Users(s.db).ExistsByEmail(ctx, email)
}

func (s *UserService) CheckNameOrEmail(ctx context.Context, name, email string) (NameEmailStatus, error) {
	nameTaken, err := s.IsNameExist(ctx, name)
	if err != nil {
		return NothingExists, err
	}
	emailTaken, err := s.IsEmailExist(ctx, email)
	if err != nil {
		return NothingExists, err
	}
	return statusOf(nameTaken, emailTaken), nil
}

// CreateAccount registers an activated account. A taken name or email yields
// a *ConflictError.
func (s *UserService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*models.User, error) {
	if !isEmail(req.Email) {
		return nil, common.ErrInvalidEmail
	}
	if req.Password == "" || len(req.Password) > maxPasswordLen {
		return nil, common.ErrInvalidPassword
	}

	status, err := s.CheckNameOrEmail(ctx, req.Name, req.Email)
	if err != nil {
		return nil, internalErr(err)
	}
	switch status {
	case NothingExists:
	case NameExists, EmailExists, BothExist:
		return nil, newConflictError(status)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, internalErr(err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		IsActivated:  true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, s.raceConflict(ctx, req)
		}
		return nil, internalErr(err)
	}
	return user, nil
}

// raceConflict describes a unique violation hit by a concurrent insert.
func (s *UserService) raceConflict(ctx context.Context, req CreateAccountRequest) error {
	status, err := s.CheckNameOrEmail(ctx, req.Name, req.Email)
	if err != nil || status == NothingExists {
		return &ConflictError{Status: NothingExists, Msg: "Name or email already exist"}
	}
	return newConflictError(status)
}

func (s *UserService) decode(token string) (*auth.Subject, error) {
	raw, err := s.codec.Decode(token)
	if err != nil {
		return nil, unauthorized(err)
	}
	sub, err := auth.ParseSubject(raw)
	if err != nil {
		return nil, unauthorized(err)
	}
	return &sub, nil
}

func (s *UserService) issue(sub auth.Subject) (*Token, error) {
	access, err := s.codec.Encode(sub.String(), s.tokenTTL)
	if err != nil {
		return nil, internalErr(err)
	}
	return &Token{AccessToken: access, TokenType: common.TokenType}, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("notekeeper")
	})
	return s.dummyHash
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
