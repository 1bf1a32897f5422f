package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StevenLove/fantazy/internal/cache"
	"github.com/StevenLove/fantazy/internal/catalog"
	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/nfl"
	"github.com/StevenLove/fantazy/internal/store"
)

// stubStore answers every read with an empty result.
type stubStore struct{}

func (stubStore) Ping(context.Context) error { return nil }
func (stubStore) ListPlayers(context.Context, store.PlayerFilter) ([]byte, error) {
	return []byte(`[]`), nil
}
func (stubStore) GetPlayer(context.Context, int) ([]byte, error) { return []byte(`{"id":1}`), nil }
func (stubStore) ListGames(context.Context, int, *int) ([]byte, error) {
	return []byte(`[]`), nil
}
func (stubStore) PlayerProps(context.Context, int, string) ([]byte, error) {
	return []byte(`[]`), nil
}
func (stubStore) SeasonalStats(context.Context, int, int, string) ([]byte, error) { return nil, nil }
func (stubStore) WeeklyStats(context.Context, int, int, []int) ([]byte, error) {
	return []byte(`[]`), nil
}
func (stubStore) NGSStats(context.Context, int, int, []nfl.NGSKind) (map[nfl.NGSKind]json.RawMessage, error) {
	return map[nfl.NGSKind]json.RawMessage{}, nil
}
func (stubStore) GameStats(context.Context, int, string) (*store.GameStats, error) {
	return nil, store.ErrNotFound
}
func (stubStore) RangeStats(context.Context, int, int, nfl.Range) ([]byte, error) {
	return []byte(`{"games_played":0}`), nil
}
func (stubStore) ListCards(context.Context, store.CardFilter) ([]byte, error) {
	return []byte(`[]`), nil
}
func (stubStore) GetCard(context.Context, uuid.UUID) ([]byte, error) { return nil, store.ErrNotFound }
func (stubStore) CreateCard(context.Context, store.NewCard) ([]byte, error) {
	return []byte(`{}`), nil
}
func (stubStore) DeleteCard(context.Context, uuid.UUID) error { return store.ErrNotFound }
func (stubStore) ListFieldDefinitions(context.Context, store.FieldFilter) ([]byte, error) {
	return []byte(`[]`), nil
}

func testRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	fields, err := catalog.Default()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(stubStore{}, cache.New(false), fields, cfg, logger)
}

func TestRouterRoutes(t *testing.T) {
	r := testRouter(t, &config.Config{CurrentSeason: 2025, CORSAllowOrigins: []string{"*"}})
	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/health/db", http.StatusOK},
		{http.MethodGet, "/api/health/cache", http.StatusOK},
		{http.MethodGet, "/api/players", http.StatusOK},
		{http.MethodGet, "/api/players/1", http.StatusOK},
		{http.MethodGet, "/api/players/1/seasonal-stats", http.StatusOK},
		{http.MethodGet, "/api/players/1/weekly-stats", http.StatusOK},
		{http.MethodGet, "/api/players/1/ngs-stats", http.StatusOK},
		{http.MethodGet, "/api/players/1/range-stats", http.StatusOK},
		{http.MethodGet, "/api/players/1/game/2024_01_KC_BAL", http.StatusNotFound},
		{http.MethodGet, "/api/players/1/props/2024_01_KC_BAL", http.StatusOK},
		{http.MethodGet, "/api/games", http.StatusOK},
		{http.MethodGet, "/api/player-cards", http.StatusOK},
		{http.MethodGet, "/api/player-cards/" + uuid.NewString(), http.StatusNotFound},
		{http.MethodDelete, "/api/player-cards/" + uuid.NewString(), http.StatusNotFound},
		{http.MethodGet, "/api/player-card-fields", http.StatusOK},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))
		})
	}
}

func TestRouterCreateCard(t *testing.T) {
	r := testRouter(t, &config.Config{CurrentSeason: 2025})
	body := `{"name":"A","type":"data_display","timeframe":"weekly","position_qb":true,"fields":["passing_yards"],"created_by":"u1"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/player-cards", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouterCORSPreflight(t *testing.T) {
	r := testRouter(t, &config.Config{CORSAllowOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/player-cards", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// burst is requests/2 = 1
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:1234").Code)
	rec := send("10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:1234").Code)
}

func TestTimingMiddlewareStampsBeforeBody(t *testing.T) {
	h := TimingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, strings.HasSuffix(rec.Header().Get("X-Process-Time"), "ms"))
	assert.Equal(t, "ok", rec.Body.String())
}
