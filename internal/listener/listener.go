// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps the
// API response cache in step with ingestion. It holds a dedicated pgx
// connection (not from the pool) listening on the `stats_refreshed` channel.
//
// When an ingestion run finishes a dataset it calls pg_notify, and this
// consumer drops the cached responses built from that dataset.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/StevenLove/fantazy/internal/cache"
	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Start opens a dedicated connection and listens on the stats_refreshed
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, c cache.Backend, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, c, logger)
		if ctx.Err() != nil {
			logger.Info("Refresh listener stopped (context cancelled)")
			return
		}

		logger.Error("Refresh listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, c cache.Backend, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+config.StatsRefreshedChannel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", config.StatsRefreshedChannel, err)
	}
	logger.Info("Refresh listener connected", "channel", config.StatsRefreshedChannel)

	// Anything cached while disconnected may predate a missed refresh.
	c.InvalidatePrefix(ctx, "")

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		Handle(ctx, c, notification.Payload, logger)
	}
}

// Handle applies one stats_refreshed payload to the cache.
func Handle(ctx context.Context, c cache.Backend, payload string, logger *slog.Logger) {
	r, err := db.ParseRefresh(payload)
	if err != nil {
		logger.Warn("Failed to parse refresh event", "payload", payload, "error", err)
		return
	}

	dropped := 0
	for _, prefix := range prefixes(r) {
		dropped += c.InvalidatePrefix(ctx, prefix)
	}
	logger.Info("Refresh event received",
		"dataset", r.Dataset, "season", r.Season, "invalidated", dropped)
}

// prefixes maps a refreshed dataset to the cache key prefixes built from it.
// Stats and props responses are not cached, so those datasets map to nothing.
func prefixes(r db.Refresh) []string {
	switch r.Dataset {
	case db.DatasetPlayers:
		return []string{cache.PrefixPlayers}
	case db.DatasetGames:
		if r.Season == 0 {
			return []string{cache.PrefixGames}
		}
		return []string{cache.PrefixGames + strconv.Itoa(r.Season) + ":"}
	case db.DatasetFields:
		return []string{cache.PrefixFields}
	case db.DatasetWeekly, db.DatasetSeasonal, db.DatasetNGS, db.DatasetProps:
		return nil
	}
	// unknown dataset: drop everything
	return []string{""}
}
