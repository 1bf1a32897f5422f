// Package nflverse streams the public nflverse-data CSV releases (rosters,
// schedules, weekly player stats, next-gen stats).
//
// Files are large and read once per run, so rows are delivered to a callback
// as they are parsed instead of being buffered.
package nflverse

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/StevenLove/fantazy/internal/nfl"
	"github.com/StevenLove/fantazy/internal/provider"
)

// RosterPath is the season roster release asset.
func RosterPath(season int) string {
	return fmt.Sprintf("rosters/roster_%d.csv", season)
}

// PlayerStatsPath is the weekly offensive player stats asset.
func PlayerStatsPath(season int) string {
	return fmt.Sprintf("player_stats/player_stats_%d.csv", season)
}

// SchedulePath is the all-seasons schedule asset.
const SchedulePath = "schedules/games.csv"

// NGSPath is the all-seasons next-gen stats asset for kind.
func NGSPath(kind nfl.NGSKind) string {
	return fmt.Sprintf("nextgen_stats/ngs_%s.csv", kind)
}

// Record is one CSV row addressed by header name.
type Record struct {
	header map[string]int
	row    []string
}

// Get returns the trimmed cell for col, or "" when the column is missing.
func (r Record) Get(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.row) {
		return ""
	}
	v := strings.TrimSpace(r.row[i])
	if v == "NA" {
		return ""
	}
	return v
}

// Has reports whether the file carries col.
func (r Record) Has(col string) bool {
	_, ok := r.header[col]
	return ok
}

// Float returns col as a nullable float.
func (r Record) Float(col string) *float64 {
	return provider.FloatPtr(r.Get(col))
}

// Int returns col as a nullable int.
func (r Record) Int(col string) *int {
	return provider.IntPtr(r.Get(col))
}

// Text returns col as a nullable string.
func (r Record) Text(col string) *string {
	v := r.Get(col)
	if v == "" {
		return nil
	}
	return &v
}

// Client downloads release assets.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a client for the release download base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		breaker:    provider.NewBreaker("nflverse", logger),
		logger:     logger,
	}
}

// Each downloads path and calls fn for every data row. An error from fn stops
// the iteration and is returned.
func (c *Client) Each(ctx context.Context, path string, fn func(Record) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request %s: %w", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, &provider.StatusError{Provider: "nflverse", Path: path, Status: resp.StatusCode, Body: provider.Truncate(body, 200)}
		}
		return resp, nil
	})
	if err != nil {
		return err
	}
	resp := res.(*http.Response)
	defer resp.Body.Close()

	c.logger.Info("Reading nflverse asset", "path", path)
	return Parse(resp.Body, fn)
}

// Parse reads a headered CSV stream and calls fn per row.
func Parse(r io.Reader, fn func(Record) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	header := make(map[string]int, len(head))
	for i, h := range head {
		header[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read csv line %d: %w", line, err)
		}
		if err := fn(Record{header: header, row: row}); err != nil {
			return err
		}
	}
}
