package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/StevenLove/fantazy/internal/api/respond"
	"github.com/StevenLove/fantazy/internal/cache"
	"github.com/StevenLove/fantazy/internal/nfl"
	"github.com/StevenLove/fantazy/internal/store"
)

const maxCardBody = 64 << 10

type graphConfig struct {
	XAxis     string `json:"x_axis" validate:"required"`
	YAxis     string `json:"y_axis" validate:"required"`
	Line      string `json:"line,omitempty" validate:"required_if=ChartType bar_with_line"`
	ChartType string `json:"chart_type" validate:"required,oneof=line bar scatter bar_with_line"`
}

type createCardRequest struct {
	Name        string       `json:"name" validate:"required,max=100"`
	Description string       `json:"description" validate:"max=500"`
	Type        string       `json:"type" validate:"required,oneof=data_display graph"`
	Timeframe   string       `json:"timeframe" validate:"required,oneof=weekly cumulative"`
	PositionQB  bool         `json:"position_qb"`
	PositionRB  bool         `json:"position_rb"`
	PositionWR  bool         `json:"position_wr"`
	PositionTE  bool         `json:"position_te"`
	PositionK   bool         `json:"position_k"`
	Fields      []string     `json:"fields" validate:"omitempty,dive,required"`
	GraphConfig *graphConfig `json:"graph_config" validate:"required_if=Type graph"`
	CreatedBy   string       `json:"created_by" validate:"required,max=100"`
}

// trim strips the free-text fields so blank values fail required.
func (req *createCardRequest) trim() {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.CreatedBy = strings.TrimSpace(req.CreatedBy)
}

func (req *createCardRequest) positions() []nfl.Position {
	flags := []bool{req.PositionQB, req.PositionRB, req.PositionWR, req.PositionTE, req.PositionK}
	var ps []nfl.Position
	for i, p := range nfl.FantasyPositions {
		if flags[i] {
			ps = append(ps, p)
		}
	}
	return ps
}

// toNewCard applies the rules struct tags cannot express and resolves the
// final ordered field list. Graph cards without explicit fields take their
// axes (and line) as fields.
func (h *Handler) toNewCard(req *createCardRequest) (store.NewCard, error) {
	positions := req.positions()
	if len(positions) == 0 {
		return store.NewCard{}, errors.New("at least one position must be selected")
	}

	fields := req.Fields
	var graph json.RawMessage
	if req.GraphConfig != nil {
		gc := req.GraphConfig
		for _, key := range []string{gc.XAxis, gc.YAxis, gc.Line} {
			if key != "" {
				if _, ok := h.fields.Lookup(key); !ok {
					return store.NewCard{}, fmt.Errorf("unknown graph field %q", key)
				}
			}
		}
		if len(fields) == 0 && req.Type == nfl.CardTypeGraph {
			fields = dedupe([]string{gc.XAxis, gc.YAxis, gc.Line})
		}
		var err error
		if graph, err = json.Marshal(gc); err != nil {
			return store.NewCard{}, err
		}
	}

	if req.Type == nfl.CardTypeDataDisplay && len(fields) == 0 {
		return store.NewCard{}, errors.New("at least one field must be selected")
	}
	seen := make(map[string]bool, len(fields))
	for _, key := range fields {
		if seen[key] {
			return store.NewCard{}, fmt.Errorf("field %q listed more than once", key)
		}
		seen[key] = true
		if _, ok := h.fields.Lookup(key); !ok {
			return store.NewCard{}, fmt.Errorf("unknown field %q", key)
		}
	}

	return store.NewCard{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Timeframe:   req.Timeframe,
		Positions:   positions,
		GraphConfig: graph,
		Fields:      fields,
		CreatedBy:   req.CreatedBy,
	}, nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	var out []string
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// ListCards returns saved player cards.
// @Summary List player cards
// @Description Cards with their ordered field keys, built-in defaults first then newest first.
// @Tags cards
// @Produce json
// @Param timeframe query string false "weekly or cumulative"
// @Param type query string false "data_display or graph"
// @Param created_by query string false "Creator identifier"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /player-cards [get]
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		filter store.CardFilter
		err    error
	)
	if v := q.Get("timeframe"); v != "" {
		if filter.Timeframe, err = nfl.ParseTimeframe(v); err != nil {
			badRequest(w, "INVALID_TIMEFRAME", err)
			return
		}
	}
	if v := q.Get("type"); v != "" {
		if filter.Type, err = nfl.ParseCardType(v); err != nil {
			badRequest(w, "INVALID_TYPE", err)
			return
		}
	}
	filter.CreatedBy = q.Get("created_by")

	raw, err := h.store.ListCards(r.Context(), filter)
	if err != nil {
		h.internalError(w, err, "Failed to fetch player cards")
		return
	}
	respond.WriteRaw(w, http.StatusOK, raw)
}

// GetCard returns one player card.
// @Summary Get player card
// @Tags cards
// @Produce json
// @Param cardID path string true "Card UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /player-cards/{cardID} [get]
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, ok := cardIDParam(w, r)
	if !ok {
		return
	}
	raw, err := h.store.GetCard(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "Player card not found", "Failed to fetch player card")
		return
	}
	respond.WriteRaw(w, http.StatusOK, raw)
}

// CreateCard validates and stores a new player card.
// @Summary Create player card
// @Description Validates the card fully before touching the database, then inserts the card and its ordered fields in one transaction.
// @Tags cards
// @Accept json
// @Produce json
// @Param card body createCardRequest true "Card definition"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /player-cards [post]
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCardBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be a JSON card definition: "+err.Error())
		return
	}
	req.trim()
	if err := h.validate.StructCtx(r.Context(), &req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", validationMessage(err))
		return
	}
	card, err := h.toNewCard(&req)
	if err != nil {
		badRequest(w, "VALIDATION_FAILED", err)
		return
	}

	raw, err := h.store.CreateCard(r.Context(), card)
	if err != nil {
		h.internalError(w, err, "Failed to create player card")
		return
	}
	respond.WriteRaw(w, http.StatusCreated, raw)
}

// DeleteCard removes a player card and its fields.
// @Summary Delete player card
// @Tags cards
// @Produce json
// @Param cardID path string true "Card UUID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /player-cards/{cardID} [delete]
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := cardIDParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteCard(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Player card not found", "Failed to delete player card")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"message": "Player card deleted successfully"})
}

// ListCardFields returns the selectable field catalog.
// @Summary Player card field catalog
// @Description Active field definitions ordered for display. A timeframe filter also matches fields valid for both.
// @Tags cards
// @Produce json
// @Param position query string false "QB, RB, WR, TE or K"
// @Param timeframe query string false "weekly or cumulative"
// @Param category query string false "basic, advanced, fantasy, efficiency or game_info"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /player-card-fields [get]
func (h *Handler) ListCardFields(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		filter store.FieldFilter
		err    error
	)
	if v := q.Get("position"); v != "" {
		if filter.Position, err = nfl.ParsePosition(v); err != nil {
			badRequest(w, "INVALID_POSITION", err)
			return
		}
	}
	if v := q.Get("timeframe"); v != "" {
		if filter.Timeframe, err = nfl.ParseTimeframe(v); err != nil {
			badRequest(w, "INVALID_TIMEFRAME", err)
			return
		}
	}
	if v := q.Get("category"); v != "" {
		if filter.Category, err = nfl.ParseCategory(v); err != nil {
			badRequest(w, "INVALID_CATEGORY", err)
			return
		}
	}

	key := fmt.Sprintf("%s%s:%s:%s", cache.PrefixFields, filter.Position, filter.Timeframe, filter.Category)
	h.serveCached(w, r, key, cache.TTLReference, func(ctx context.Context) ([]byte, error) {
		return h.store.ListFieldDefinitions(ctx, filter)
	}, "Failed to fetch player card fields")
}
