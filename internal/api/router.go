package api

import (
	"net/http"

	"github.com/Rrens/fai-advisor/internal/api/handler"
	customMiddleware "github.com/Rrens/fai-advisor/internal/api/middleware"
	"github.com/Rrens/fai-advisor/internal/auth"
	"github.com/Rrens/fai-advisor/internal/chat"
	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/Rrens/fai-advisor/internal/i18n"
	"github.com/Rrens/fai-advisor/internal/metrics"
	"github.com/Rrens/fai-advisor/internal/ratelimit"
	"github.com/Rrens/fai-advisor/internal/repository"
	"github.com/Rrens/fai-advisor/internal/web"
	"github.com/Rrens/fai-advisor/internal/websession"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps holds everything the router wires into handlers
type Deps struct {
	Config   *config.Config
	Auth     auth.Client
	Sessions *websession.Manager
	Registry *chat.Registry
	Loader   *i18n.Loader
	Limiter  ratelimit.Limiter
	// Metrics is optional; nil disables instrumentation and the metrics route
	Metrics *metrics.Metrics
	Store   repository.Pinger
	Web     *web.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(customMiddleware.Metrics(d.Metrics))
	}

	sessionLoader := customMiddleware.NewSessionLoader(d.Sessions, d.Auth)
	language := customMiddleware.Language(d.Loader)
	authMiddleware := customMiddleware.NewAuthMiddleware(d.Auth)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(d.Limiter)
	chatHandler := handler.NewChatHandler(d.Registry)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.Config.Server.CORSOrigins(),
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: d.Config.Server.CORSCredentials(),
			MaxAge:           300,
		}))

		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(d.Store))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(sessionLoader.Load)
			r.Use(language)
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Route("/chats", func(r chi.Router) {
				r.Get("/", chatHandler.List)
				r.Post("/", chatHandler.Create)
				r.Post("/messages", chatHandler.SendMessage)

				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", chatHandler.Rename)
					r.Delete("/", chatHandler.Delete)
					r.Post("/select", chatHandler.Select)
				})
			})
		})
	})

	if d.Metrics != nil && d.Config.Metrics.Enabled {
		r.Method(http.MethodGet, d.Config.Metrics.Path, d.Metrics.Handler())
	}

	// Pages
	r.Group(func(r chi.Router) {
		r.Use(sessionLoader.Load)
		r.Use(language)
		d.Web.Routes(r)
	})

	return r
}
