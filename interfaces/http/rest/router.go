package rest

import (
	"context"
	"net/http"
	"time"

	"twinklepod/application/commands/bus"
	querybus "twinklepod/application/queries/bus"
	"twinklepod/interfaces/http/rest/handlers"
	"twinklepod/interfaces/http/rest/middleware"
	pkgerrors "twinklepod/pkg/errors"
	"twinklepod/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether the service can take traffic
type ReadinessCheck func(ctx context.Context) error

// RouterOptions holds what the router needs beyond the buses
type RouterOptions struct {
	Authenticator  func(http.Handler) http.Handler
	Guard          *handlers.ChildGuard
	Errors         *pkgerrors.ErrorHandler
	Metrics        middleware.RequestRecorder
	MetricsHandler http.Handler
	Tracer         *observability.Tracer
	Ready          ReadinessCheck
	CORSOrigins    []string
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	opts       RouterOptions
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	opts RouterOptions,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		opts:       opts,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.opts.Tracer.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Metrics != nil {
		router.Use(middleware.Metrics(rt.opts.Metrics))
	}
	router.Use(rt.opts.Errors.Middleware)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.MetricsHandler)
	}

	// The catalog is public
	stories := handlers.NewStoryHandler(rt.queryBus, rt.opts.Errors)
	router.Route("/stories", func(r chi.Router) {
		r.Get("/list", stories.ListStories)
		r.Get("/{storyID}", stories.GetStory)
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(rt.opts.Authenticator)

		progress := handlers.NewProgressHandler(rt.commandBus, rt.queryBus, rt.opts.Guard, rt.opts.Errors, rt.logger)
		r.Post("/progress", progress.SaveProgress)
		r.Get("/progress", progress.GetProgress)

		interactions := handlers.NewInteractionHandler(rt.commandBus, rt.queryBus, rt.opts.Guard, rt.opts.Errors, rt.logger)
		r.Post("/interaction", interactions.RecordEvent)
		r.Get("/interaction", interactions.ListEvents)

		library := handlers.NewLibraryHandler(rt.queryBus, rt.opts.Guard, rt.opts.Errors, rt.logger)
		r.Get("/library", library.GetLibrary)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports 503 while a dependency is unhealthy
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.opts.Ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
