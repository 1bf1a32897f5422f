package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/StevenLove/fantazy/internal/api/respond"
	"github.com/StevenLove/fantazy/internal/nfl"
)

// GetSeasonalStats returns a player's season totals.
// @Summary Seasonal stats
// @Description One row for the player and season joined to name, position and team; null when absent.
// @Tags stats
// @Produce json
// @Param playerID path int true "Player ID"
// @Param season query int false "Season year (defaults to current)"
// @Param season_type query string false "REG or POST" default(REG)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /players/{playerID}/seasonal-stats [get]
func (h *Handler) GetSeasonalStats(w http.ResponseWriter, r *http.Request) {
	id, ok := playerIDParam(w, r)
	if !ok {
		return
	}
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	seasonType, err := nfl.ParseSeasonType(r.URL.Query().Get("season_type"))
	if err != nil {
		badRequest(w, "INVALID_SEASON_TYPE", err)
		return
	}
	raw, err := h.store.SeasonalStats(r.Context(), id, season, seasonType)
	if err != nil {
		h.internalError(w, err, "Failed to fetch seasonal stats")
		return
	}
	writeNullable(w, raw)
}

// GetWeeklyStats returns a player's weekly rows with game context.
// @Summary Weekly stats
// @Description Weekly rows joined to the game the player's team played, ordered by week.
// @Tags stats
// @Produce json
// @Param playerID path int true "Player ID"
// @Param season query int false "Season year (defaults to current)"
// @Param weeks query string false "Comma-separated weeks, e.g. 1,2,WC"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /players/{playerID}/weekly-stats [get]
func (h *Handler) GetWeeklyStats(w http.ResponseWriter, r *http.Request) {
	id, ok := playerIDParam(w, r)
	if !ok {
		return
	}
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	weeks, err := nfl.ParseWeekList(r.URL.Query().Get("weeks"))
	if err != nil {
		badRequest(w, "INVALID_WEEK", err)
		return
	}
	raw, err := h.store.WeeklyStats(r.Context(), id, season, weeks)
	if err != nil {
		h.internalError(w, err, "Failed to fetch weekly stats")
		return
	}
	respond.WriteRaw(w, http.StatusOK, raw)
}

// GetNGSStats returns next-gen stats arrays keyed by kind.
// @Summary Next-gen stats
// @Tags stats
// @Produce json
// @Param playerID path int true "Player ID"
// @Param season query int false "Season year (defaults to current)"
// @Param type query string false "all, passing, receiving or rushing" default(all)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /players/{playerID}/ngs-stats [get]
func (h *Handler) GetNGSStats(w http.ResponseWriter, r *http.Request) {
	id, ok := playerIDParam(w, r)
	if !ok {
		return
	}
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	kinds, err := nfl.ParseNGSType(r.URL.Query().Get("type"))
	if err != nil {
		badRequest(w, "INVALID_TYPE", err)
		return
	}
	result, err := h.store.NGSStats(r.Context(), id, season, kinds)
	if err != nil {
		h.internalError(w, err, "Failed to fetch NGS stats")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, result)
}

// GetGameStats returns the game, the player's weekly row and NGS rows for it.
// @Summary Player stats for one game
// @Description Composite of game, weekly_stats and ngs_stats; each stats part may be null.
// @Tags stats
// @Produce json
// @Param playerID path int true "Player ID"
// @Param gameID path string true "nflverse game id"
// @Success 200 {object} store.GameStats
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /players/{playerID}/game/{gameID} [get]
func (h *Handler) GetGameStats(w http.ResponseWriter, r *http.Request) {
	id, ok := playerIDParam(w, r)
	if !ok {
		return
	}
	result, err := h.store.GameStats(r.Context(), id, chi.URLParam(r, "gameID"))
	if err != nil {
		h.writeStoreError(w, err, "Game not found", "Failed to fetch game stats")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, result)
}

// GetRangeStats returns per-game averages over a trailing window.
// @Summary Range stats
// @Description games_played plus averages over the player's last N weeks (L3, L5, L10) or the whole season.
// @Tags stats
// @Produce json
// @Param playerID path int true "Player ID"
// @Param season query int false "Season year (defaults to current)"
// @Param range query string false "L3, L5, L10 or SEASON" default(SEASON)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /players/{playerID}/range-stats [get]
func (h *Handler) GetRangeStats(w http.ResponseWriter, r *http.Request) {
	id, ok := playerIDParam(w, r)
	if !ok {
		return
	}
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	rng, err := nfl.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		badRequest(w, "INVALID_RANGE", err)
		return
	}
	raw, err := h.store.RangeStats(r.Context(), id, season, rng)
	if err != nil {
		h.internalError(w, err, "Failed to fetch range stats")
		return
	}
	respond.WriteRaw(w, http.StatusOK, raw)
}
