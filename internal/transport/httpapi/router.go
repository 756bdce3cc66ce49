package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/unifin/unifin/internal/transport/httpapi/handler"
	"github.com/unifin/unifin/internal/transport/httpapi/middleware"
	"github.com/unifin/unifin/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger          *logger.Logger
	AllowedOrigins  []string
	AuthHandler     *handler.AuthHandler
	LinkHandler     *handler.LinkHandler
	SnapshotHandler *handler.SnapshotHandler
	HealthHandler   *handler.HealthHandler
	JWTMiddleware   func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit())

	// Health check endpoints (no authentication required)
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
		r.Get("/health/detailed", cfg.HealthHandler.GetHealthDetailed)
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public)
		if cfg.AuthHandler != nil {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
		}

		// Protected routes (require JWT authentication)
		if cfg.JWTMiddleware != nil {
			r.Group(func(r chi.Router) {
				r.Use(cfg.JWTMiddleware)

				if cfg.LinkHandler != nil {
					r.Post("/links", cfg.LinkHandler.CreateLink)
					r.Get("/links", cfg.LinkHandler.GetLinks)
					r.Get("/links/{id}", cfg.LinkHandler.GetLink)
					r.Delete("/links/{id}", cfg.LinkHandler.DeleteLink)
				}

				if cfg.SnapshotHandler != nil {
					r.Get("/snapshot", cfg.SnapshotHandler.GetSnapshot)
					r.Get("/spending", cfg.SnapshotHandler.GetSpending)
				}
			})
		}
	})

	return r
}
