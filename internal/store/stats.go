package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/nfl"
)

// SeasonalStats returns the player's season row joined to name/position/team,
// or nil when the player has no row for that season.
func (s *Store) SeasonalStats(ctx context.Context, playerID, season int, seasonType string) ([]byte, error) {
	raw, err := s.queryOptionalJSON(ctx, db.StmtSeasonalStats, playerID, season, seasonType)
	if err != nil {
		return nil, fmt.Errorf("seasonal stats player %d season %d: %w", playerID, season, err)
	}
	return raw, nil
}

// weeklyStatsQuery joins each weekly row to the game the player's team played
// that week. The weeks predicate is only added when weeks is non-empty.
func weeklyStatsQuery(playerID, season int, weeks []int) (string, []any) {
	var p placeholders
	var b strings.Builder
	b.WriteString(`SELECT COALESCE(json_agg(row_to_json(r) ORDER BY r.week), '[]'::json) FROM (
		SELECT w.*,
			g.game_id, g.gameday, g.gametime, g.home_team, g.away_team,
			g.home_score, g.away_score, g.total_line, g.roof, g.temp, g.wind
		FROM ` + config.WeeklyStatsTable + ` w
		LEFT JOIN ` + config.GamesTable + ` g
			ON g.season = w.season AND g.week = w.week
			AND (g.away_team = w.recent_team OR g.home_team = w.recent_team)
		WHERE w.player_id = `)
	b.WriteString(p.next(playerID))
	b.WriteString(" AND w.season = ")
	b.WriteString(p.next(season))
	if len(weeks) > 0 {
		b.WriteString(" AND w.week = ANY(")
		b.WriteString(p.next(weeks))
		b.WriteString(")")
	}
	b.WriteString("\n\t) r")
	return b.String(), p.args
}

// WeeklyStats returns the player's weekly rows with game context, ordered by
// week.
func (s *Store) WeeklyStats(ctx context.Context, playerID, season int, weeks []int) ([]byte, error) {
	sql, args := weeklyStatsQuery(playerID, season, weeks)
	raw, err := s.queryJSONList(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("weekly stats player %d season %d: %w", playerID, season, err)
	}
	return raw, nil
}

var ngsSeasonStmts = map[nfl.NGSKind]string{
	nfl.NGSPassing:   db.StmtNGSPassing,
	nfl.NGSReceiving: db.StmtNGSReceiving,
	nfl.NGSRushing:   db.StmtNGSRushing,
}

var ngsWeekStmts = map[nfl.NGSKind]string{
	nfl.NGSPassing:   db.StmtNGSPassingForWeek,
	nfl.NGSReceiving: db.StmtNGSReceivingForWeek,
	nfl.NGSRushing:   db.StmtNGSRushingForWeek,
}

// NGSStats returns one week-ordered array per requested kind.
func (s *Store) NGSStats(ctx context.Context, playerID, season int, kinds []nfl.NGSKind) (map[nfl.NGSKind]json.RawMessage, error) {
	out := make(map[nfl.NGSKind]json.RawMessage, len(kinds))
	for _, kind := range kinds {
		stmt, ok := ngsSeasonStmts[kind]
		if !ok {
			return nil, fmt.Errorf("unknown ngs kind %q", kind)
		}
		raw, err := s.queryJSONList(ctx, stmt, playerID, season)
		if err != nil {
			return nil, fmt.Errorf("ngs %s player %d season %d: %w", kind, playerID, season, err)
		}
		out[kind] = raw
	}
	return out, nil
}

// GameNGS holds the three NGS rows for a single week; absent rows are null.
type GameNGS struct {
	Passing   json.RawMessage `json:"passing"`
	Receiving json.RawMessage `json:"receiving"`
	Rushing   json.RawMessage `json:"rushing"`
}

// GameStats is the composite a game detail view renders.
type GameStats struct {
	Game        json.RawMessage `json:"game"`
	WeeklyStats json.RawMessage `json:"weekly_stats"`
	NGSStats    GameNGS         `json:"ngs_stats"`
}

// GameStats resolves the game's season and week, then looks up the player's
// weekly row and each NGS row for that week. Only a missing game is an error.
func (s *Store) GameStats(ctx context.Context, playerID int, gameID string) (*GameStats, error) {
	var (
		game         []byte
		season, week int
	)
	err := s.db.QueryRow(ctx, db.StmtGameByID, gameID).Scan(&game, &season, &week)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", gameID, err)
	}

	result := &GameStats{Game: game}
	if result.WeeklyStats, err = s.queryOptionalJSON(ctx, db.StmtWeeklyForWeek, playerID, season, week); err != nil {
		return nil, fmt.Errorf("weekly row for game %s: %w", gameID, err)
	}
	targets := map[nfl.NGSKind]*json.RawMessage{
		nfl.NGSPassing:   &result.NGSStats.Passing,
		nfl.NGSReceiving: &result.NGSStats.Receiving,
		nfl.NGSRushing:   &result.NGSStats.Rushing,
	}
	for _, kind := range nfl.NGSKinds {
		raw, err := s.queryOptionalJSON(ctx, ngsWeekStmts[kind], playerID, season, week)
		if err != nil {
			return nil, fmt.Errorf("ngs %s for game %s: %w", kind, gameID, err)
		}
		*targets[kind] = raw
	}
	return result, nil
}

// rangeAverages are the weekly columns averaged by the range aggregate.
var rangeAverages = []string{
	"completions", "attempts", "passing_yards", "passing_tds", "interceptions",
	"carries", "rushing_yards", "rushing_tds",
	"receptions", "targets", "receiving_yards", "receiving_tds",
	"fantasy_points", "fantasy_points_ppr",
	"passing_epa", "rushing_epa", "receiving_epa",
	"target_share", "air_yards_share",
}

// rangeStatsQuery aggregates a player's weekly rows. An LN range keeps weeks
// >= max_week - N + 1 for that player and season; SEASON keeps all of them.
// Postseason weeks (19-22) participate as ordinary week numbers.
func rangeStatsQuery(playerID, season int, r nfl.Range) (string, []any) {
	var p placeholders
	var b strings.Builder
	b.WriteString("SELECT row_to_json(agg) FROM (SELECT COUNT(*) AS games_played")
	for _, col := range rangeAverages {
		fmt.Fprintf(&b, ", AVG(w.%s) AS avg_%s", col, col)
	}
	b.WriteString(" FROM " + config.WeeklyStatsTable + " w")
	pid, ssn := p.next(playerID), p.next(season)
	b.WriteString(" WHERE w.player_id = " + pid + " AND w.season = " + ssn)
	if n := r.Window(); n > 0 {
		b.WriteString(" AND w.week >= (SELECT MAX(m.week) - " + p.next(n) + " + 1 FROM " +
			config.WeeklyStatsTable + " m WHERE m.player_id = " + pid + " AND m.season = " + ssn + ")")
	}
	b.WriteString(") agg")
	return b.String(), p.args
}

// RangeStats returns games_played plus per-game averages for the range. A
// player with no rows gets games_played 0 and null averages.
func (s *Store) RangeStats(ctx context.Context, playerID, season int, r nfl.Range) ([]byte, error) {
	sql, args := rangeStatsQuery(playerID, season, r)
	raw, err := s.queryJSON(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("range %s player %d season %d: %w", r, playerID, season, err)
	}
	return raw, nil
}
