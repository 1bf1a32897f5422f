package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/StevenLove/fantazy/internal/api/handler"
	"github.com/StevenLove/fantazy/internal/cache"
	"github.com/StevenLove/fantazy/internal/catalog"
	"github.com/StevenLove/fantazy/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(s handler.Store, appCache cache.Backend, fields *catalog.Catalog, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	if cfg.Debug {
		r.Use(LoggingMiddleware(logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	h := handler.New(s, appCache, fields, cfg, logger)

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.HealthCheck)
			r.Get("/db", h.HealthCheckDB)
			r.Get("/cache", h.HealthCheckCache)
		})

		r.Get("/games", h.ListGames)

		r.Route("/players", func(r chi.Router) {
			r.Get("/", h.ListPlayers)
			r.Route("/{playerID}", func(r chi.Router) {
				r.Get("/", h.GetPlayer)
				r.Get("/seasonal-stats", h.GetSeasonalStats)
				r.Get("/weekly-stats", h.GetWeeklyStats)
				r.Get("/ngs-stats", h.GetNGSStats)
				r.Get("/range-stats", h.GetRangeStats)
				r.Get("/game/{gameID}", h.GetGameStats)
				r.Get("/props/{gameID}", h.GetPlayerProps)
			})
		})

		r.Route("/player-cards", func(r chi.Router) {
			r.Get("/", h.ListCards)
			r.Post("/", h.CreateCard)
			r.Get("/{cardID}", h.GetCard)
			r.Delete("/{cardID}", h.DeleteCard)
		})

		r.Get("/player-card-fields", h.ListCardFields)
	})

	return r
}
