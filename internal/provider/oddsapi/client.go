// Package oddsapi is a client for The Odds API v4 player-prop endpoints.
//
// The API authenticates with an apiKey query parameter and meters usage per
// key. The client holds an ordered key list and moves to the next key when
// the current one reports an exhausted quota, retrying the same request.
package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/StevenLove/fantazy/internal/provider"
)

const (
	// Sport is The Odds API key for the NFL.
	Sport      = "americanfootball_nfl"
	regions    = "us"
	oddsFormat = "american"
)

// Prop markets collected, one request per event and market.
const (
	MarketPassYds      = "player_pass_yds"
	MarketReceptionYds = "player_reception_yds"
	MarketRushYds      = "player_rush_yds"
)

// Markets lists every collected market in request order.
var Markets = []string{MarketPassYds, MarketReceptionYds, MarketRushYds}

var (
	// ErrNoKeys is returned when the client was built without API keys.
	ErrNoKeys = errors.New("odds api: no API keys configured")
	// ErrQuotaExhausted is returned once every configured key is out of quota.
	ErrQuotaExhausted = errors.New("odds api: all API keys quota exceeded")
)

// Event is one scheduled game.
type Event struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
}

// Outcome is one side of a prop. Description carries the player name.
type Outcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point"`
}

// Market is one bookmaker's offering for a market key.
type Market struct {
	Key        string    `json:"key"`
	LastUpdate time.Time `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Bookmaker groups a book's markets.
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// EventOdds is the event-odds response for one market.
type EventOdds struct {
	Event
	Bookmakers []Bookmaker `json:"bookmakers"`
}

// Client is the rate-limited Odds API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger

	mu     sync.Mutex
	keys   []string
	keyIdx int
}

// NewClient creates a client over keys, used in order.
func NewClient(baseURL string, keys []string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		breaker:    provider.NewBreaker("oddsapi", logger),
		logger:     logger,
		keys:       keys,
	}
}

// Events lists upcoming NFL events.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.get(ctx, "/v4/sports/"+Sport+"/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// EventOdds fetches one market's odds for an event.
func (c *Client) EventOdds(ctx context.Context, eventID, market string) (*EventOdds, error) {
	params := url.Values{
		"regions":    {regions},
		"markets":    {market},
		"oddsFormat": {oddsFormat},
	}
	var odds EventOdds
	path := "/v4/sports/" + Sport + "/events/" + url.PathEscape(eventID) + "/odds"
	if err := c.get(ctx, path, params, &odds); err != nil {
		return nil, err
	}
	return &odds, nil
}

type response struct {
	status int
	body   []byte
}

// get performs a rate-limited GET, failing over to the next key on quota
// exhaustion.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	for {
		key, idx, ok := c.currentKey()
		if !ok {
			if len(c.keys) == 0 {
				return ErrNoKeys
			}
			return ErrQuotaExhausted
		}

		resp, err := c.do(ctx, path, params, key, idx)
		if err != nil {
			return err
		}

		switch {
		case resp.status == http.StatusOK:
			if err := json.Unmarshal(resp.body, out); err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		case isQuotaExceeded(resp):
			c.logger.Warn("Odds API key quota exceeded", "key_index", idx+1)
			c.advanceKey(idx)
		default:
			return &provider.StatusError{Provider: "odds api", Path: path, Status: resp.status, Body: provider.Truncate(resp.body, 300)}
		}
	}
}

func (c *Client) do(ctx context.Context, path string, params url.Values, key string, idx int) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apiKey", key)
	u := c.baseURL + path + "?" + q.Encode()

	res, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request %s: %w", path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		c.logger.Debug("Odds API call",
			"path", path,
			"status", resp.StatusCode,
			"key_index", idx+1,
			"requests_remaining", resp.Header.Get("x-requests-remaining"),
			"requests_used", resp.Header.Get("x-requests-used"))

		if resp.StatusCode >= 500 {
			return nil, &provider.StatusError{Provider: "odds api", Path: path, Status: resp.StatusCode, Body: provider.Truncate(body, 300)}
		}
		return &response{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*response), nil
}

// isQuotaExceeded matches the API's out-of-usage responses: 401 (or 429)
// with a body mentioning the quota.
func isQuotaExceeded(r *response) bool {
	if r.status != http.StatusUnauthorized && r.status != http.StatusTooManyRequests {
		return false
	}
	return strings.Contains(strings.ToLower(string(r.body)), "quota")
}

func (c *Client) currentKey() (string, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keyIdx >= len(c.keys) {
		return "", c.keyIdx, false
	}
	return c.keys[c.keyIdx], c.keyIdx, true
}

// advanceKey moves past idx unless another caller already did.
func (c *Client) advanceKey(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keyIdx == idx {
		c.keyIdx++
		if c.keyIdx < len(c.keys) {
			c.logger.Info("Switching Odds API key", "key_index", c.keyIdx+1)
		}
	}
}
