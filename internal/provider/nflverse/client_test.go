package nflverse

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StevenLove/fantazy/internal/nfl"
	"github.com/StevenLove/fantazy/internal/provider"
)

const statsCSV = "\ufeffplayer_id,player_name,season,week,passing_yards,target_share\n" +
	"00-0033873,P.Mahomes,2024,1,291,NA\n" +
	"00-0036389,J.Hurts,2024,19,\"131\",0.05\n"

func TestParse(t *testing.T) {
	var rows []Record
	err := Parse(strings.NewReader(statsCSV), func(r Record) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "00-0033873", first.Get("player_id"))
	assert.Equal(t, 291.0, *first.Float("passing_yards"))
	assert.Nil(t, first.Float("target_share"))
	assert.Nil(t, first.Text("target_share"))
	assert.Equal(t, "", first.Get("missing_column"))
	assert.False(t, first.Has("missing_column"))

	assert.Equal(t, 19, *rows[1].Int("week"))
}

func TestParseStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	n := 0
	err := Parse(strings.NewReader(statsCSV), func(Record) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestParseEmpty(t *testing.T) {
	assert.NoError(t, Parse(strings.NewReader(""), func(Record) error { return nil }))
}

func TestClientEach(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + PlayerStatsPath(2024):
			w.Write([]byte(statsCSV))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", slog.New(slog.NewTextHandler(io.Discard, nil)))
	n := 0
	require.NoError(t, c.Each(context.Background(), PlayerStatsPath(2024), func(Record) error {
		n++
		return nil
	}))
	assert.Equal(t, 2, n)

	err := c.Each(context.Background(), NGSPath(nfl.NGSPassing), func(Record) error { return nil })
	var se *provider.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "rosters/roster_2025.csv", RosterPath(2025))
	assert.Equal(t, "nextgen_stats/ngs_receiving.csv", NGSPath(nfl.NGSReceiving))
}
