package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/speedq/internal/api/middleware"
	"github.com/eldtechnologies/speedq/internal/engine"
	"github.com/eldtechnologies/speedq/internal/handlers"
	"github.com/eldtechnologies/speedq/internal/store"
)

// Options configures the HTTP router.
type Options struct {
	RouterSecret string
	RateLimit    middleware.RateLimiterConfig
}

// NewRouter creates and configures the HTTP router. redisStore may be nil,
// which disables rate limiting.
func NewRouter(logger zerolog.Logger, e *engine.Engine, redisStore *store.RedisStore, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(256 * 1024)) // session tables from busy hotspots
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (public intake only)
	limiter := middleware.NewRateLimiter(redisStore.Client(), logger, opts.RateLimit)
	r.Use(limiter.Middleware)

	// CORS - the login page is served by the router from its own origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RouterSecretHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(e, redisStore, opts.RouterSecret, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.StatusPage)
	r.Get("/api", h.Root)
	r.Get("/health", h.Health)

	// Captive portal
	r.Post("/api/speed/request", h.RequestSpeed)
	r.Get("/api/speed/set", h.SetSpeedBeacon)
	r.Get("/api/speed/get", h.GetSpeed)

	// Dashboard
	r.Get("/api/users", h.Users)
	r.Post("/api/user/disconnect", h.Disconnect)
	r.Get("/api/stats", h.Stats)

	// Router (require shared secret)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RouterAuth(opts.RouterSecret, logger))

		r.Get("/api/router/commands", h.Commands)
		r.Post("/api/router/confirm", h.Confirm)
		r.Post("/api/router/users", h.PushUsers)
	})

	return r
}
