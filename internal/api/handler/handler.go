// Package handler provides HTTP handlers for all API endpoints.
// Handlers call the store directly; there is no service layer. Postgres
// returns complete JSON and handlers pass the bytes through.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/StevenLove/fantazy/internal/api/respond"
	"github.com/StevenLove/fantazy/internal/cache"
	"github.com/StevenLove/fantazy/internal/catalog"
	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/nfl"
	"github.com/StevenLove/fantazy/internal/store"
)

// Store is the query surface the handlers need. *store.Store implements it.
type Store interface {
	Ping(ctx context.Context) error
	ListPlayers(ctx context.Context, f store.PlayerFilter) ([]byte, error)
	GetPlayer(ctx context.Context, id int) ([]byte, error)
	ListGames(ctx context.Context, season int, week *int) ([]byte, error)
	PlayerProps(ctx context.Context, playerID int, gameID string) ([]byte, error)
	SeasonalStats(ctx context.Context, playerID, season int, seasonType string) ([]byte, error)
	WeeklyStats(ctx context.Context, playerID, season int, weeks []int) ([]byte, error)
	NGSStats(ctx context.Context, playerID, season int, kinds []nfl.NGSKind) (map[nfl.NGSKind]json.RawMessage, error)
	GameStats(ctx context.Context, playerID int, gameID string) (*store.GameStats, error)
	RangeStats(ctx context.Context, playerID, season int, r nfl.Range) ([]byte, error)
	ListCards(ctx context.Context, f store.CardFilter) ([]byte, error)
	GetCard(ctx context.Context, id uuid.UUID) ([]byte, error)
	CreateCard(ctx context.Context, c store.NewCard) ([]byte, error)
	DeleteCard(ctx context.Context, id uuid.UUID) error
	ListFieldDefinitions(ctx context.Context, f store.FieldFilter) ([]byte, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store    Store
	cache    cache.Backend
	cfg      *config.Config
	fields   *catalog.Catalog
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a Handler with shared dependencies.
func New(s Store, c cache.Backend, fields *catalog.Catalog, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:    s,
		cache:    c,
		cfg:      cfg,
		fields:   fields,
		logger:   logger,
		validate: validator.New(),
	}
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"message":   "Fantazy API server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns response cache statistics for the active backend.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(r.Context()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// serveCached answers from the cache when possible, otherwise runs load,
// stores the result and writes it. Load failures become a 500 with failMsg.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration,
	load func(ctx context.Context) ([]byte, error), failMsg string) {
	if data, etag, ok := h.cache.Get(r.Context(), key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	raw, err := load(r.Context())
	if err != nil {
		h.internalError(w, err, failMsg)
		return
	}
	etag := h.cache.Set(r.Context(), key, raw, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, raw, etag, ttl, false)
}

// internalError logs err and writes a 500 with a short public message.
func (h *Handler) internalError(w http.ResponseWriter, err error, msg string) {
	h.logger.Error(msg, "error", err)
	respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", msg)
}

// writeStoreError maps store.ErrNotFound to 404 and everything else to 500.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, notFoundMsg, failMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", notFoundMsg)
		return
	}
	h.internalError(w, err, failMsg)
}

// writeNullable passes raw through, rendering absence as JSON null.
func writeNullable(w http.ResponseWriter, raw []byte) {
	if raw == nil {
		raw = []byte("null")
	}
	respond.WriteRaw(w, http.StatusOK, raw)
}

func playerIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	// ids are int4 serials
	id, err := strconv.ParseInt(chi.URLParam(r, "playerID"), 10, 32)
	if err != nil || id <= 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "player id must be a positive integer")
		return 0, false
	}
	return int(id), true
}

func cardIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "cardID"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "card id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// seasonParam reads ?season=, defaulting to the configured current season.
func (h *Handler) seasonParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("season")
	if s == "" {
		return h.cfg.CurrentSeason, true
	}
	season, err := strconv.Atoi(s)
	if err != nil || season < 1999 || season > time.Now().Year()+1 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SEASON", "season must be a year between 1999 and next year")
		return 0, false
	}
	return season, true
}

func badRequest(w http.ResponseWriter, code string, err error) {
	respond.WriteError(w, http.StatusBadRequest, code, err.Error())
}
