package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/erfajc97/anko-back/internal/config"
	"github.com/erfajc97/anko-back/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// HealthChecker is satisfied by the database pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// New assembles the HTTP handler: shared middleware, /health and the /v1 API.
func New(
	cfg *config.Config,
	tokens middleware.TokenParser,
	limiter *middleware.IPRateLimiter,
	health HealthChecker,
	h Handlers,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(chimw.Recoverer)

	origins := cfg.CORSAllowedOrigins
	if cfg.IsDevelopment() {
		origins = []string{"*"} // Allow all origins for development
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            false,
	})
	r.Use(c.Handler)
	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	r.Get("/health", healthHandler(health, logger))

	apiRouter, api := SetupHumaAPI(middleware.AuthMiddleware(tokens, logger), logger)
	RegisterRoutes(api, h, logger)
	r.Mount("/v1", apiRouter)

	logger.Info().Strs("cors_origins", origins).Msg("Router initialized")
	return r
}

func healthHandler(health HealthChecker, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := health.Ping(ctx); err != nil {
				logger.Error().Err(err).Msg("Health check failed")
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": status}); err != nil {
			logger.Error().Err(err).Msg("Failed to encode response")
		}
	}
}
