package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/StevenLove/fantazy/internal/api/respond"
	"github.com/StevenLove/fantazy/internal/cache"
	"github.com/StevenLove/fantazy/internal/nfl"
	"github.com/StevenLove/fantazy/internal/store"
)

// ListPlayers returns fantasy-relevant players.
// @Summary List players
// @Description Players at QB, RB, WR, TE and K ordered by position then name. Defaults to active players.
// @Tags players
// @Produce json
// @Param position query string false "Comma-separated positions" example(QB,WR)
// @Param status query string false "Roster status, 'all' disables the filter" default(ACT)
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.PlayerFilter{Status: store.DefaultStatus}

	if raw := q.Get("position"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			p, err := nfl.ParsePosition(part)
			if err != nil {
				badRequest(w, "INVALID_POSITION", err)
				return
			}
			filter.Positions = append(filter.Positions, p)
		}
	}
	if raw := q.Get("status"); raw != "" {
		status, err := nfl.ParseRosterStatus(raw)
		if err != nil {
			badRequest(w, "INVALID_STATUS", err)
			return
		}
		filter.Status = status
	}

	key := fmt.Sprintf("%s%s:%s", cache.PrefixPlayers, strings.Join(nfl.Strings(filter.Positions), ","), filter.Status)
	h.serveCached(w, r, key, cache.TTLRoster, func(ctx context.Context) ([]byte, error) {
		return h.store.ListPlayers(ctx, filter)
	}, "Failed to fetch players")
}

// GetPlayer returns a single player.
// @Summary Get player
// @Tags players
// @Produce json
// @Param playerID path int true "Player ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /players/{playerID} [get]
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := playerIDParam(w, r)
	if !ok {
		return
	}
	raw, err := h.store.GetPlayer(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "Player not found", "Failed to fetch player")
		return
	}
	respond.WriteRaw(w, http.StatusOK, raw)
}

// ListGames returns a season's schedule.
// @Summary List games
// @Description Games for a season ordered by gameday, optionally a single week. Postseason weeks are 19-22 (or WC, DR, CC, SB).
// @Tags games
// @Produce json
// @Param season query int false "Season year (defaults to current)"
// @Param week query string false "Week number or postseason round"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /games [get]
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	season, ok := h.seasonParam(w, r)
	if !ok {
		return
	}
	var week *int
	weekKey := "all"
	if raw := r.URL.Query().Get("week"); raw != "" {
		wk, err := nfl.ParseWeek(raw)
		if err != nil {
			badRequest(w, "INVALID_WEEK", err)
			return
		}
		week = &wk
		weekKey = strconv.Itoa(wk)
	}

	key := fmt.Sprintf("%s%d:%s", cache.PrefixGames, season, weekKey)
	h.serveCached(w, r, key, cache.TTLSchedule, func(ctx context.Context) ([]byte, error) {
		return h.store.ListGames(ctx, season, week)
	}, "Failed to fetch games")
}

// GetPlayerProps returns prop lines for a player in one game.
// @Summary Player props for a game
// @Description One row per bookmaker with passing, rushing and receiving yard lines.
// @Tags props
// @Produce json
// @Param playerID path int true "Player ID"
// @Param gameID path string true "nflverse game id"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /players/{playerID}/props/{gameID} [get]
func (h *Handler) GetPlayerProps(w http.ResponseWriter, r *http.Request) {
	id, ok := playerIDParam(w, r)
	if !ok {
		return
	}
	raw, err := h.store.PlayerProps(r.Context(), id, chi.URLParam(r, "gameID"))
	if err != nil {
		h.internalError(w, err, "Failed to fetch player props")
		return
	}
	respond.WriteRaw(w, http.StatusOK, raw)
}
