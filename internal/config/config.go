// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names. Single source of truth, matches internal/db/schema.sql.
// --------------------------------------------------------------------------

const (
	PlayersTable          = "players"
	GamesTable            = "games"
	WeeklyStatsTable      = "player_weekly_stats"
	SeasonalStatsTable    = "player_seasonal_stats"
	NGSPassingTable       = "player_ngs_passing"
	NGSReceivingTable     = "player_ngs_receiving"
	NGSRushingTable       = "player_ngs_rushing"
	PropsTable            = "player_props"
	CardsTable            = "player_cards"
	CardFieldsTable       = "player_card_fields"
	FieldDefinitionsTable = "player_card_field_definitions"
)

// StatsRefreshedChannel is the NOTIFY channel ingestion publishes on after a
// dataset changes.
const StatsRefreshedChannel = "stats_refreshed"

// --------------------------------------------------------------------------
// Config is populated from environment variables.
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Season used when a request or command does not name one
	CurrentSeason int

	// The Odds API
	OddsAPIKeys           []string
	OddsAPIBaseURL        string
	OddsRequestsPerMinute int
	OddsEventDelay        time.Duration

	// Stats providers
	NFLVerseBaseURL string
	SleeperBaseURL  string

	// Ingestion
	DataDir         string
	NightlySchedule string
	SnapshotMaxAge  time.Duration
	ImportWorkers   int

	// Cache
	CacheEnabled bool
	RedisURL     string
}

// Load reads configuration from environment variables with sensible defaults.
// DATABASE_URL wins; otherwise the URL is composed from the DB_* variables
// with local development fallbacks.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		dbURL = composeDatabaseURL()
	}
	if _, err := url.Parse(dbURL); err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 20),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 3001)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 300),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CurrentSeason: envInt("NFL_SEASON", 2025),

		OddsAPIKeys:           oddsAPIKeys(),
		OddsAPIBaseURL:        envOr("ODDS_API_BASE_URL", "https://api.the-odds-api.com"),
		OddsRequestsPerMinute: envInt("ODDS_API_REQUESTS_PER_MINUTE", 60),
		OddsEventDelay:        time.Duration(envInt("ODDS_API_EVENT_DELAY_MS", 2000)) * time.Millisecond,

		NFLVerseBaseURL: envOr("NFLVERSE_BASE_URL", "https://github.com/nflverse/nflverse-data/releases/download"),
		SleeperBaseURL:  envOr("SLEEPER_BASE_URL", "https://api.sleeper.app"),

		DataDir:         envOr("DATA_DIR", "./data"),
		NightlySchedule: envOr("NIGHTLY_SCHEDULE", "0 4 * * *"),
		SnapshotMaxAge:  time.Duration(envInt("SNAPSHOT_MAX_AGE_DAYS", 14)) * 24 * time.Hour,
		ImportWorkers:   envInt("IMPORT_WORKERS", 4),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		RedisURL:     envOr("REDIS_URL", ""),
	}
	if cfg.DBPoolMinConns > cfg.DBPoolMaxConns {
		return nil, fmt.Errorf("DB_POOL_MIN_CONNS (%d) exceeds DB_POOL_MAX_CONNS (%d)",
			cfg.DBPoolMinConns, cfg.DBPoolMaxConns)
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LogHandler returns the slog handler for the process: JSON lines in
// production, text elsewhere. Debug lowers the level.
func (c *Config) LogHandler(w io.Writer) slog.Handler {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.IsProduction() {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func composeDatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(envOr("DB_USER", "postgres"), envOr("DB_PASSWORD", "password")),
		Host:   envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432"),
		Path:   "/" + envOr("DB_NAME", "ff_angles"),
	}
	if mode := envOr("DB_SSLMODE", ""); mode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(mode)
	}
	return u.String()
}

// oddsAPIKeys returns the ordered key list used for quota failover.
// ODDS_API_KEYS takes a comma list; otherwise ODDS_API_KEY then ODDS_API_KEY_2.
func oddsAPIKeys() []string {
	if keys := envList("ODDS_API_KEYS", nil); len(keys) > 0 {
		return keys
	}
	var keys []string
	for _, k := range []string{"ODDS_API_KEY", "ODDS_API_KEY_2"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			keys = append(keys, v)
		}
	}
	return keys
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
