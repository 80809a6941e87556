package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/auth"
	"github.com/yuirsilva/deadline-daddy/internal/config"
	"github.com/yuirsilva/deadline-daddy/internal/deposits"
	"github.com/yuirsilva/deadline-daddy/internal/http/handlers"
	"github.com/yuirsilva/deadline-daddy/internal/http/respond"
	"github.com/yuirsilva/deadline-daddy/internal/middleware"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
	"github.com/yuirsilva/deadline-daddy/internal/sweep"
	"github.com/yuirsilva/deadline-daddy/internal/tasks"
)

// Deps are the collaborators the HTTP surface delegates to.
type Deps struct {
	Store      storage.Store
	Tokens     *auth.TokenManager
	Tasks      *tasks.Service
	Deposits   *deposits.Service
	Sweeper    *sweep.Sweeper
	ParseEvent handlers.EventParser
	Log        *zap.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Routes(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// Routes builds the full router.
func Routes(cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(deps.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	handlers.NewHealthHandler(time.Now(), deps.Store).Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		handlers.NewAuthHandler(deps.Store, deps.Tokens, deps.Log).Register(r)
		handlers.NewWebhookHandler(deps.Deposits, deps.ParseEvent, cfg.WebhookSecret, deps.Log).Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.SharedSecret(cfg.CronSecret))
			handlers.NewCronHandler(deps.Sweeper, deps.Log).Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Tokens))
			handlers.NewTasksHandler(deps.Tasks, deps.Log).Register(r)
			handlers.NewWalletHandler(deps.Deposits, deps.Log).Register(r)
			handlers.NewUserHandler(deps.Store, deps.Log).Register(r)
		})
	})
	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
