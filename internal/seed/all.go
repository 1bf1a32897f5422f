package seed

import (
	"context"
	"log/slog"

	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/nfl"
)

// SeedAll refreshes every nflverse dataset for a season in dependency order:
// players, games, weekly, seasonal, then the three NGS datasets. Each
// dataset is announced on stats_refreshed once written.
func SeedAll(ctx context.Context, q db.Querier, src CSVSource, season int, logger *slog.Logger) Result {
	var result Result

	steps := []struct {
		dataset string
		run     func() Result
	}{
		{db.DatasetPlayers, func() Result { return SeedPlayers(ctx, q, src, season, logger) }},
		{db.DatasetGames, func() Result { return SeedGames(ctx, q, src, season, logger) }},
		{db.DatasetWeekly, func() Result { return SeedWeekly(ctx, q, src, season, logger) }},
		{db.DatasetSeasonal, func() Result { return SeedSeasonal(ctx, q, season, logger) }},
		{db.DatasetNGS, func() Result {
			var r Result
			for _, kind := range nfl.NGSKinds {
				r.Add(SeedNGS(ctx, q, src, kind, season, logger))
			}
			return r
		}},
	}

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			result.AddErrorf("seed all: %v", err)
			break
		}
		logger.Info("Seed step", "step", i+1, "of", len(steps), "dataset", step.dataset)
		r := step.run()
		result.Add(r)
		if r.Upserted > 0 {
			Announce(ctx, q, step.dataset, season, logger)
		}
	}

	logger.Info("Seed all done", "season", season, "summary", result.Summary())
	return result
}

// Announce publishes a dataset refresh. Failures are logged, not returned.
func Announce(ctx context.Context, q db.Querier, dataset string, season int, logger *slog.Logger) {
	if err := db.NotifyRefreshed(ctx, q, db.Refresh{Dataset: dataset, Season: season}); err != nil {
		logger.Warn("Refresh notification failed", "dataset", dataset, "error", err)
	}
}
