package seed

import (
	"context"
	"log/slog"
	"sort"

	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/provider/sleeper"
)

// PlayerDirectory lists Sleeper players keyed by Sleeper id.
type PlayerDirectory interface {
	Players(ctx context.Context) (map[string]sleeper.Player, error)
}

// linkGSISSQL fills a missing GSIS id on a row known only by Sleeper id,
// unless another row already owns that GSIS id.
const linkGSISSQL = `UPDATE ` + config.PlayersTable + ` p SET gsis_id = $1, updated_at = NOW()
	WHERE p.sleeper_id = $2 AND p.gsis_id IS NULL
	  AND NOT EXISTS (SELECT 1 FROM ` + config.PlayersTable + ` o WHERE o.gsis_id = $1)`

// linkExternalSQL fills missing external ids on a row known by GSIS id.
const linkExternalSQL = `UPDATE ` + config.PlayersTable + ` SET
		sleeper_id = COALESCE(sleeper_id, $2),
		espn_id = COALESCE(espn_id, $3),
		yahoo_id = COALESCE(yahoo_id, $4),
		updated_at = NOW()
	WHERE gsis_id = $1 AND (sleeper_id IS NULL OR espn_id IS NULL OR yahoo_id IS NULL)`

// LinkSleeper cross-links Sleeper and GSIS ids for active NFL players. It
// never overwrites an id that is already set.
func LinkSleeper(ctx context.Context, q db.Querier, dir PlayerDirectory, logger *slog.Logger) Result {
	var result Result
	logger.Info("Linking Sleeper ids")

	players, err := dir.Players(ctx)
	if err != nil {
		result.AddErrorf("fetch sleeper players: %v", err)
		return result
	}

	ids := make([]string, 0, len(players))
	for id, p := range players {
		if p.Linkable() {
			ids = append(ids, id)
		} else {
			result.Skipped++
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := players[id]
		gsis := p.GSIS()

		tag, err := q.Exec(ctx, linkGSISSQL, gsis, id)
		if err != nil {
			if ctx.Err() != nil {
				result.AddErrorf("link sleeper: %v", ctx.Err())
				return result
			}
			result.AddErrorf("link gsis %s -> sleeper %s: %v", gsis, id, err)
			continue
		}
		linked := tag.RowsAffected()

		tag, err = q.Exec(ctx, linkExternalSQL, gsis, id,
			nullable(sleeper.ExternalID(p.ESPNID)), nullable(sleeper.ExternalID(p.YahooID)))
		if err != nil {
			result.AddErrorf("link external ids %s: %v", gsis, err)
			continue
		}
		linked += tag.RowsAffected()
		if linked > 0 {
			result.Linked++
		}
	}

	logger.Info("Sleeper link done", "candidates", len(ids), "summary", result.Summary())
	return result
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
