// Package sleeper reads the Sleeper public player directory, used to link
// Sleeper ids and nflverse GSIS ids.
package sleeper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/StevenLove/fantazy/internal/provider"
)

// Player is the subset of a Sleeper player record the seeders use.
type Player struct {
	PlayerID string      `json:"player_id"`
	GSISID   string      `json:"gsis_id"`
	FullName string      `json:"full_name"`
	Position string      `json:"position"`
	Team     string      `json:"team"`
	Sport    string      `json:"sport"`
	Active   bool        `json:"active"`
	YahooID  interface{} `json:"yahoo_id"`
	ESPNID   interface{} `json:"espn_id"`
}

// Linkable reports whether p is an active NFL player carrying a GSIS id.
func (p Player) Linkable() bool {
	return p.Sport == "nfl" && p.Active && p.GSIS() != ""
}

// GSIS returns the trimmed GSIS id; Sleeper pads some with spaces.
func (p Player) GSIS() string {
	return strings.TrimSpace(p.GSISID)
}

// ExternalID renders a loosely typed id field as a string.
func ExternalID(v interface{}) string {
	if f, ok := provider.ExtractValue(v); ok {
		return fmt.Sprintf("%d", int64(f))
	}
	return ""
}

// Client is a rate-limited Sleeper API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a client for baseURL (https://api.sleeper.app).
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		breaker:    provider.NewBreaker("sleeper", logger),
		logger:     logger,
	}
}

// Players returns the full NFL player directory keyed by Sleeper id.
func (c *Client) Players(ctx context.Context) (map[string]Player, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	const path = "/v1/players/nfl"

	res, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request %s: %w", path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &provider.StatusError{Provider: "sleeper", Path: path, Status: resp.StatusCode, Body: provider.Truncate(body, 200)}
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	var players map[string]Player
	if err := json.Unmarshal(res.([]byte), &players); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	for id, p := range players {
		if p.PlayerID == "" {
			p.PlayerID = id
			players[id] = p
		}
	}
	c.logger.Info("Fetched Sleeper players", "count", len(players))
	return players, nil
}
