package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
)

// AnalyzeTables refreshes planner statistics on the tables a seed run
// rewrites. Call it after a successful `seed all`.
func AnalyzeTables(ctx context.Context, q db.Querier, logger *slog.Logger) error {
	tables := []string{
		config.PlayersTable,
		config.GamesTable,
		config.WeeklyStatsTable,
		config.SeasonalStatsTable,
		config.NGSPassingTable,
		config.NGSReceivingTable,
		config.NGSRushingTable,
		config.PropsTable,
	}

	for _, t := range tables {
		start := time.Now()
		_, err := q.Exec(ctx, "ANALYZE "+t)
		dur := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Warn("Failed to analyze table", "table", t, "duration", dur, "error", err)
			return fmt.Errorf("analyze %s: %w", t, err)
		}
		logger.Debug("Analyzed table", "table", t, "duration", dur)
	}
	return nil
}

// PruneSnapshots deletes JSON snapshots in dir last written before
// now-maxAge. A missing dir is not an error.
func PruneSnapshots(dir string, maxAge time.Duration, now time.Time, logger *slog.Logger) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(f); err != nil {
				return removed, fmt.Errorf("remove %s: %w", filepath.Base(f), err)
			}
			removed++
		}
	}
	if removed > 0 {
		logger.Info("Pruned snapshots", "dir", dir, "count", removed, "max_age", maxAge)
	}
	return removed, nil
}
