package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
)

const (
	detailBadCredentials   = "Incorrect username or password"
	detailNotAuthenticated = "Not authenticated"
	detailInvalidToken     = "Could not validate credentials"
	detailExpiredToken     = "Signature has expired"
	detailInternal         = "Internal server error"
)

type userKey struct{}
type tokenKey struct{}

func userFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := s.accounts.CreateAccount(r.Context(), req)
	if err != nil {
		var conflict *services.ConflictError
		switch {
		case errors.As(err, &conflict):
			writeError(w, http.StatusBadRequest, conflict.Error())
		case errors.Is(err, common.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "Invalid email")
		case errors.Is(err, common.ErrInvalidPassword):
			writeError(w, http.StatusBadRequest, "Invalid password")
		default:
			s.internalError(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleIsNameExist(w http.ResponseWriter, r *http.Request) {
	ok, err := s.accounts.IsNameExist(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (s *Server) handleIsEmailExist(w http.ResponseWriter, r *http.Request) {
	ok, err := s.accounts.IsEmailExist(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.GetUser(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Out())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	token, err := s.accounts.Login(r.Context(), services.LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		ClientID: r.PostForm.Get("client_id"),
		IP:       clientIP(r),
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.metrics.Logins.WithLabelValues(metrics.LoginFailure).Inc()
			writeUnauthorized(w, detailBadCredentials)
			return
		}
		s.metrics.Logins.WithLabelValues(metrics.LoginError).Inc()
		s.internalError(w, r, err)
		return
	}

	s.metrics.Logins.WithLabelValues(metrics.LoginSuccess).Inc()
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleRenewToken(w http.ResponseWriter, r *http.Request) {
	raw, _ := r.Context().Value(tokenKey{}).(string)

	token, err := s.accounts.RenewToken(r.Context(), raw)
	if err != nil {
		s.authError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()).Out())
}

// authMiddleware resolves the bearer token to a user and stores both the
// user and the raw token in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeUnauthorized(w, detailNotAuthenticated)
			return
		}

		user, _, err := s.accounts.Authenticate(r.Context(), token)
		if err != nil {
			s.authError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		ctx = context.WithValue(ctx, tokenKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		writeUnauthorized(w, detailExpiredToken)
	case errors.Is(err, common.ErrorUnauthorized):
		writeUnauthorized(w, detailInvalidToken)
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, detailInternal)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.TokenType) {
		return ""
	}
	return strings.TrimSpace(token)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, detail)
}
