package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/nfl"
	"github.com/StevenLove/fantazy/internal/provider/oddsapi"
	"github.com/StevenLove/fantazy/internal/reconcile"
)

// OddsSource fetches events and per-market event odds.
type OddsSource interface {
	Events(ctx context.Context) ([]oddsapi.Event, error)
	EventOdds(ctx context.Context, eventID, market string) (*oddsapi.EventOdds, error)
}

// marketPositions are the positions that plausibly hold a market's line,
// used to break ties between players sharing a name.
var marketPositions = map[string][]string{
	oddsapi.MarketPassYds:      {string(nfl.QB)},
	oddsapi.MarketReceptionYds: {string(nfl.WR), string(nfl.TE), string(nfl.RB)},
	oddsapi.MarketRushYds:      {string(nfl.RB), string(nfl.QB)},
}

// CollectProps snapshots the event list and every event's prop markets into
// dir. Events are spaced by delay. An exhausted key pool stops collection
// but keeps what was already written.
func CollectProps(ctx context.Context, src OddsSource, dir string, delay time.Duration, logger *slog.Logger) Result {
	var result Result
	now := time.Now()

	events, err := src.Events(ctx)
	if err != nil {
		result.AddErrorf("fetch events: %v", err)
		return result
	}
	if err := oddsapi.WriteSnapshot(dir, oddsapi.EventsFile, events, now); err != nil {
		result.AddErrorf("write events snapshot: %v", err)
		return result
	}
	logger.Info("Collecting props", "events", len(events), "markets", len(oddsapi.Markets))

	for i, ev := range events {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				result.AddErrorf("collect props: %v", ctx.Err())
				return result
			case <-time.After(delay):
			}
		}

		snap := oddsapi.PropsSnapshot{}
		stop := false
		for _, market := range oddsapi.Markets {
			odds, err := src.EventOdds(ctx, ev.ID, market)
			if err != nil {
				result.AddErrorf("event %s %s: %v", ev.ID, market, err)
				if errors.Is(err, oddsapi.ErrQuotaExhausted) || ctx.Err() != nil {
					stop = true
					break
				}
				continue
			}
			snap[market] = odds
		}

		if len(snap) > 0 {
			if err := oddsapi.WriteSnapshot(dir, oddsapi.PropsFile(ev.ID), snap, time.Now()); err != nil {
				result.AddErrorf("write props snapshot %s: %v", ev.ID, err)
			} else {
				result.Upserted++
			}
		} else {
			result.Skipped++
		}

		if stop {
			logger.Warn("Stopping props collection", "remaining_events", len(events)-i-1)
			break
		}
		logger.Info("Event collected", "event", ev.ID,
			"matchup", ev.AwayTeam+" @ "+ev.HomeTeam, "markets", len(snap))
	}

	logger.Info("Props collect done", "summary", result.Summary())
	return result
}

// ImportProps loads every props snapshot in dir into player_props, one worker
// per snapshot file up to workers.
func ImportProps(ctx context.Context, q db.Querier, dir string, workers int, logger *slog.Logger) Result {
	var result Result

	files, err := oddsapi.PropsFiles(dir)
	if err != nil {
		result.AddErrorf("list snapshots: %v", err)
		return result
	}
	if len(files) == 0 {
		logger.Info("No props snapshots to import", "dir", dir)
		return result
	}
	sort.Strings(files)

	ix, err := loadIndex(ctx, q)
	if err != nil {
		result.AddErrorf("load players: %v", err)
		return result
	}
	logger.Info("Importing props", "files", len(files), "name_keys", ix.Len())

	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	ch := make(chan string, len(files))
	for _, f := range files {
		ch <- f
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range ch {
				if ctx.Err() != nil {
					return
				}
				r := importSnapshot(ctx, q, ix, path, logger)
				mu.Lock()
				result.Add(r)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	logger.Info("Props import done", "summary", result.Summary())
	return result
}

func loadIndex(ctx context.Context, q db.Querier) (*reconcile.Index, error) {
	positions := []string{string(nfl.QB), string(nfl.RB), string(nfl.WR), string(nfl.TE)}
	rows, err := q.Query(ctx, db.StmtPlayersForMatching, positions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cands []reconcile.Candidate
	for rows.Next() {
		var c reconcile.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Position, &c.Team); err != nil {
			return nil, err
		}
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reconcile.NewIndex(cands), nil
}

type propKey struct {
	playerID  int
	bookmaker string
}

// sides is the stored raw_data entry for one market.
type sides struct {
	Over       *float64 `json:"over_point,omitempty"`
	Under      *float64 `json:"under_point,omitempty"`
	OverPrice  *float64 `json:"over_price,omitempty"`
	UnderPrice *float64 `json:"under_price,omitempty"`
}

// line is the Over point, or the Under point when no Over was offered.
func (s sides) line() *float64 {
	if s.Over != nil {
		return s.Over
	}
	return s.Under
}

type propRow struct {
	key        propKey
	lastUpdate time.Time
	lines      map[string]*float64
	raw        map[string]sides
}

func importSnapshot(ctx context.Context, q db.Querier, ix *reconcile.Index, path string, logger *slog.Logger) Result {
	var result Result
	name := filepath.Base(path)

	var snap oddsapi.PropsSnapshot
	if _, err := oddsapi.ReadSnapshot(path, &snap); err != nil {
		result.AddErrorf("%s: %v", name, err)
		return result
	}
	ev, ok := snapshotEvent(snap)
	if !ok {
		result.Skipped++
		return result
	}

	home, okHome := nfl.TeamAbbr(ev.HomeTeam)
	away, okAway := nfl.TeamAbbr(ev.AwayTeam)
	if !okHome || !okAway {
		result.AddErrorf("event %s: unknown team in %q @ %q", ev.ID, ev.AwayTeam, ev.HomeTeam)
		return result
	}

	var gameID string
	var gameday time.Time
	err := q.QueryRow(ctx, db.StmtGamesBetweenTeams, home, away, ev.CommenceTime).Scan(&gameID, &gameday)
	if errors.Is(err, pgx.ErrNoRows) {
		result.AddErrorf("event %s: no game for %s @ %s", ev.ID, away, home)
		return result
	}
	if err != nil {
		result.AddErrorf("event %s: game lookup: %v", ev.ID, err)
		return result
	}

	rows := collectRows(snap, ix, []string{home, away}, &result, logger)
	for _, row := range rows {
		if err := upsertProp(ctx, q, gameID, ev.ID, row); err != nil {
			result.AddErrorf("event %s player %d %s: %v", ev.ID, row.key.playerID, row.key.bookmaker, err)
			continue
		}
		result.Upserted++
	}
	logger.Info("Event imported", "event", ev.ID, "game_id", gameID, "rows", len(rows))
	return result
}

// snapshotEvent returns the event header from the first market present.
func snapshotEvent(snap oddsapi.PropsSnapshot) (oddsapi.Event, bool) {
	for _, market := range oddsapi.Markets {
		if odds := snap[market]; odds != nil && odds.ID != "" {
			return odds.Event, true
		}
	}
	return oddsapi.Event{}, false
}

// collectRows groups outcomes into one row per (player, bookmaker), ordered
// by player id then bookmaker.
func collectRows(snap oddsapi.PropsSnapshot, ix *reconcile.Index, teams []string, result *Result, logger *slog.Logger) []*propRow {
	byKey := make(map[propKey]*propRow)
	unmatched := make(map[string]bool)

	for _, market := range oddsapi.Markets {
		odds := snap[market]
		if odds == nil {
			continue
		}
		hint := reconcile.Hint{Teams: teams, Positions: marketPositions[market]}

		for _, bm := range odds.Bookmakers {
			for _, m := range bm.Markets {
				if m.Key != market {
					continue
				}
				for player, s := range groupSides(m.Outcomes) {
					if s.line() == nil {
						continue
					}
					cand, err := ix.Lookup(player, hint)
					if err != nil {
						if !unmatched[player] {
							unmatched[player] = true
							result.Skipped++
							logger.Debug("Unmatched prop player", "name", player, "market", market, "error", err)
						}
						continue
					}
					key := propKey{playerID: cand.ID, bookmaker: bm.Key}
					row, ok := byKey[key]
					if !ok {
						row = &propRow{key: key, lines: map[string]*float64{}, raw: map[string]sides{}}
						byKey[key] = row
					}
					row.lines[market] = s.line()
					row.raw[market] = s
					updated := m.LastUpdate
					if updated.IsZero() {
						updated = bm.LastUpdate
					}
					if updated.After(row.lastUpdate) {
						row.lastUpdate = updated
					}
				}
			}
		}
	}

	rows := make([]*propRow, 0, len(byKey))
	for _, row := range byKey {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].key.playerID != rows[j].key.playerID {
			return rows[i].key.playerID < rows[j].key.playerID
		}
		return rows[i].key.bookmaker < rows[j].key.bookmaker
	})
	return rows
}

// groupSides pairs Over and Under outcomes by player name.
func groupSides(outcomes []oddsapi.Outcome) map[string]sides {
	out := make(map[string]sides)
	for _, o := range outcomes {
		if o.Description == "" {
			continue
		}
		s := out[o.Description]
		price := o.Price
		switch o.Name {
		case "Over":
			s.Over, s.OverPrice = o.Point, &price
		case "Under":
			s.Under, s.UnderPrice = o.Point, &price
		default:
			continue
		}
		out[o.Description] = s
	}
	return out
}

var propsUpsertSQL = fmt.Sprintf(`INSERT INTO %[1]s
		(player_id, game_id, event_id, bookmaker, last_update,
		 player_pass_yds, player_reception_yds, player_rush_yds, raw_data)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (player_id, game_id, bookmaker) DO UPDATE SET
		event_id = EXCLUDED.event_id,
		last_update = EXCLUDED.last_update,
		player_pass_yds = COALESCE(EXCLUDED.player_pass_yds, %[1]s.player_pass_yds),
		player_reception_yds = COALESCE(EXCLUDED.player_reception_yds, %[1]s.player_reception_yds),
		player_rush_yds = COALESCE(EXCLUDED.player_rush_yds, %[1]s.player_rush_yds),
		raw_data = %[1]s.raw_data || EXCLUDED.raw_data,
		imported_at = NOW()`, config.PropsTable)

func upsertProp(ctx context.Context, q db.Querier, gameID, eventID string, row *propRow) error {
	raw, err := json.Marshal(row.raw)
	if err != nil {
		return fmt.Errorf("encode raw data: %w", err)
	}
	var lastUpdate *time.Time
	if !row.lastUpdate.IsZero() {
		lastUpdate = &row.lastUpdate
	}
	_, err = q.Exec(ctx, propsUpsertSQL,
		row.key.playerID, gameID, eventID, row.key.bookmaker, lastUpdate,
		row.lines[oddsapi.MarketPassYds], row.lines[oddsapi.MarketReceptionYds], row.lines[oddsapi.MarketRushYds],
		raw)
	return err
}
