// Package httpapi exposes the account service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AccountService is what the handlers need from the auth coordinator.
type AccountService interface {
	Login(ctx context.Context, req services.LoginRequest) (*services.Token, error)
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Subject, error)
	RenewToken(ctx context.Context, token string) (*services.Token, error)
	GetUser(ctx context.Context, nameOrEmail string) (*models.User, error)
	CreateAccount(ctx context.Context, req services.CreateAccountRequest) (*models.User, error)
	IsNameExist(ctx context.Context, name string) (bool, error)
	IsEmailExist(ctx context.Context, email string) (bool, error)
}

type Server struct {
	addr     string
	accounts AccountService
	metrics  *metrics.Metrics
	logger   logging.Logger

	notes    NoteFiles
	archiver NoteArchiver
}

func NewServer(addr string, accounts AccountService, m *metrics.Metrics, l logging.Logger) *Server {
	return &Server{
		addr:     addr,
		accounts: accounts,
		metrics:  m,
		logger:   l.With("module", "http_server"),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/account", func(r chi.Router) {
		r.Post("/create", s.handleCreate)
		r.Get("/is_name_exist", s.handleIsNameExist)
		r.Get("/is_email_exist", s.handleIsEmailExist)
		r.Get("/user", s.handleGetUser)
		r.Post("/login", s.handleLogin)

		r.With(s.authMiddleware).Get("/renew_token", s.handleRenewToken)
		r.With(s.authMiddleware).Get("/me", s.handleMe)
	})

	if s.notes != nil {
		r.Route("/notes", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/{name}", s.handleReadNote)
			r.Post("/{name}/archive", s.handleArchiveNote)
		})
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server started", "addr", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info(ctx, "shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		s.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		s.logger.Debug(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "status", status, "duration", elapsed)
	})
}
