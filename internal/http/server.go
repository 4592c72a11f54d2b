package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinerank/internal/auth"
	"github.com/Clark-Hu/cinerank/internal/catalog"
	"github.com/Clark-Hu/cinerank/internal/config"
	"github.com/Clark-Hu/cinerank/internal/i18n"
	"github.com/Clark-Hu/cinerank/internal/metrics"
	"github.com/Clark-Hu/cinerank/internal/report"
	"github.com/Clark-Hu/cinerank/internal/votes"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Health   HealthChecker
	Votes    *votes.Service
	Resolver *votes.Resolver
	Catalog  catalog.Client
	Reports  *report.Service
	Auth     *auth.Manager
	Logger   zerolog.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	health   HealthChecker
	votes    *votes.Service
	resolver *votes.Resolver
	catalog  catalog.Client
	reports  *report.Service
	auth     *auth.Manager
	messages i18n.Messages
	logger   zerolog.Logger
	limiter  func(http.Handler) http.Handler
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		health:   deps.Health,
		votes:    deps.Votes,
		resolver: deps.Resolver,
		catalog:  deps.Catalog,
		reports:  deps.Reports,
		auth:     deps.Auth,
		messages: i18n.NewMessages(cfg.DisplayLocale),
		logger:   deps.Logger.With().Str("component", "http").Logger(),
	}
	s.limiter = s.voteRateLimit(cfg.VoteRateLimitPerMin)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(auth.Middleware(deps.Auth, s.respondError))

	s.router = r
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.fallbacks(s.router)
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/titles", s.handleBrowse)
	s.router.Get("/search", s.handleSearch)
	s.router.Get("/catalog", s.handleCatalog)
	s.router.Get("/dashboard", s.handleDashboard)
	s.router.Get("/users/{id}/votes", s.handleUserVotes)

	s.router.Route("/titles/{id}", func(r chi.Router) {
		s.fallbacks(r)
		r.Get("/", s.handleTitleDetail)
		r.Get("/votes", s.handleTitleVotes)
		r.With(s.limiter).Post("/vote", s.handleSubmitVote)
		r.With(s.limiter).Delete("/vote", s.handleRetractVote)
	})
	s.router.Route("/votes", func(r chi.Router) {
		s.fallbacks(r)
		r.Get("/top", s.handleTopTitles)
		r.With(s.limiter).Post("/", s.handleInsertVote)
	})
}

// fallbacks answers unknown routes and unsupported methods with the error envelope.
func (s *Server) fallbacks(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondCode(w, http.StatusNotFound, i18n.CodeRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondCode(w, http.StatusMethodNotAllowed, i18n.CodeMethodNotAllowed)
	})
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
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
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
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

	if err := s.health.HealthCheck(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
