package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/watchhub/watchlist-api/internal/auth"
	"github.com/watchhub/watchlist-api/internal/config"
	"github.com/watchhub/watchlist-api/internal/ratelimit"
	"github.com/watchhub/watchlist-api/internal/repository"
	"github.com/watchhub/watchlist-api/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	store    *store.Store
	repo     *repository.Repository
	verifier *auth.Verifier
	limiter  *ratelimit.Limiter
	logger   *log.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, limiter *ratelimit.Limiter, logger *log.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Clients of the legacy API use trailing slashes.
	r.Use(middleware.StripSlashes)

	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		repo:     repo,
		verifier: auth.NewVerifier(cfg.JWTSecret),
		limiter:  limiter,
		logger:   logger,
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/platforms", func(r chi.Router) {
		r.Get("/", s.handleListPlatforms)
		r.Post("/", s.handleCreatePlatform)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPlatform)
			r.Put("/", s.handleUpdatePlatform)
			r.Delete("/", s.handleDeletePlatform)
		})
	})

	s.router.Route("/titles", func(r chi.Router) {
		r.Get("/", s.handleListTitles)
		r.Post("/", s.handleCreateTitle)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTitle)
			r.Put("/", s.handleUpdateTitle)
			r.Delete("/", s.handleDeleteTitle)
			r.Post("/reviews/create", s.handleCreateReview)
			r.Get("/reviews", s.handleListTitleReviews)
		})
	})

	s.router.Route("/reviews", func(r chi.Router) {
		r.Get("/", s.handleListUserReviews)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetReview)
			r.Put("/", s.handleUpdateReview)
			r.Delete("/", s.handleDeleteReview)
		})
	})
}

// Start boots the HTTP server asynchronously.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
