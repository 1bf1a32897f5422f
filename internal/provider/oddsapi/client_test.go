package oddsapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StevenLove/fantazy/internal/provider"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestClient(url string, keys ...string) *Client {
	// effectively unthrottled for tests
	return NewClient(url, keys, 60000, discard)
}

func TestEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sports/americanfootball_nfl/events", r.URL.Path)
		assert.Equal(t, "k1", r.URL.Query().Get("apiKey"))
		w.Header().Set("x-requests-remaining", "499")
		w.Write([]byte(`[{"id":"e1","sport_key":"americanfootball_nfl","commence_time":"2025-09-07T17:00:00Z",
			"home_team":"Philadelphia Eagles","away_team":"Dallas Cowboys"}]`))
	}))
	defer srv.Close()

	events, err := newTestClient(srv.URL, "k1").Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "Philadelphia Eagles", events[0].HomeTeam)
	assert.Equal(t, 2025, events[0].CommenceTime.Year())
}

func TestEventOddsParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sports/americanfootball_nfl/events/e1/odds", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "us", q.Get("regions"))
		assert.Equal(t, MarketRushYds, q.Get("markets"))
		assert.Equal(t, "american", q.Get("oddsFormat"))
		w.Write([]byte(`{"id":"e1","home_team":"Philadelphia Eagles","away_team":"Dallas Cowboys",
			"bookmakers":[{"key":"draftkings","title":"DraftKings","markets":[{"key":"player_rush_yds",
			"outcomes":[{"name":"Over","description":"Saquon Barkley","price":-115,"point":98.5},
			{"name":"Under","description":"Saquon Barkley","price":-105,"point":98.5}]}]}]}`))
	}))
	defer srv.Close()

	odds, err := newTestClient(srv.URL, "k1").EventOdds(context.Background(), "e1", MarketRushYds)
	require.NoError(t, err)
	require.Len(t, odds.Bookmakers, 1)
	out := odds.Bookmakers[0].Markets[0].Outcomes
	require.Len(t, out, 2)
	assert.Equal(t, "Saquon Barkley", out[0].Description)
	assert.Equal(t, 98.5, *out[0].Point)
}

func TestKeyFailoverOnQuota(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("apiKey") == "k1" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Usage quota has been reached"}`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "k1", "k2")
	_, err := c.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// the exhausted key is not retried
	_, err = c.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAllKeysExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"quota exceeded"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "k1", "k2").Events(context.Background())
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestNoKeys(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").Events(context.Background())
	assert.ErrorIs(t, err, ErrNoKeys)
}

func TestUnauthorizedWithoutQuotaIsNotFailover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "bad", "k2").Events(context.Background())
	var se *provider.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Status)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC)
	events := []Event{{ID: "e1", HomeTeam: "Kansas City Chiefs", AwayTeam: "Baltimore Ravens"}}
	require.NoError(t, WriteSnapshot(dir, EventsFile, events, at))

	var got []Event
	ts, err := ReadSnapshot(filepath.Join(dir, EventsFile), &got)
	require.NoError(t, err)
	assert.True(t, at.Equal(ts))
	assert.Equal(t, events, got)

	require.NoError(t, WriteSnapshot(dir, PropsFile("abc/123"), PropsSnapshot{}, at))
	files, err := PropsFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "player-props-abc-123.json", filepath.Base(files[0]))
}
