package sleeper

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/players/nfl", r.URL.Path)
		w.Write([]byte(`{
			"4046": {"player_id":"4046","gsis_id":" 00-0033873","full_name":"Patrick Mahomes","position":"QB","team":"KC","sport":"nfl","active":true,"number":15,"yahoo_id":30123},
			"9999": {"gsis_id":null,"full_name":"Retired Guy","sport":"nfl","active":false},
			"DEF1": {"full_name":"Team D","sport":"nfl","active":true}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	players, err := c.Players(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 3)

	pm := players["4046"]
	assert.True(t, pm.Linkable())
	assert.Equal(t, "00-0033873", pm.GSIS())
	assert.Equal(t, "30123", ExternalID(pm.YahooID))
	assert.Equal(t, "", ExternalID(nil))

	assert.False(t, players["9999"].Linkable())
	assert.Equal(t, "9999", players["9999"].PlayerID)
	assert.False(t, players["DEF1"].Linkable())
}

func TestPlayersUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Players(context.Background())
	assert.Error(t, err)
}
