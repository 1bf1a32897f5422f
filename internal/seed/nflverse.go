package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/nfl"
	"github.com/StevenLove/fantazy/internal/provider/nflverse"
)

// CSVSource streams nflverse release assets row by row.
type CSVSource interface {
	Each(ctx context.Context, path string, fn func(nflverse.Record) error) error
}

var playersUpsert = newUpsert(config.PlayersTable, []string{
	"gsis_id", "player_name", "first_name", "last_name", "position", "team", "status",
	"jersey_number", "headshot_url", "height", "weight", "college", "years_exp", "entry_year",
	"espn_id", "sleeper_id", "yahoo_id", "pfr_id",
}, []string{"gsis_id"}, "updated_at")

// SeedPlayers upserts the season roster keyed on GSIS id. Rows without a GSIS
// id cannot be joined to stats and are skipped.
func SeedPlayers(ctx context.Context, q db.Querier, src CSVSource, season int, logger *slog.Logger) Result {
	var result Result
	logger.Info("Seeding players", "season", season)

	err := src.Each(ctx, nflverse.RosterPath(season), func(rec nflverse.Record) error {
		gsis := rec.Get("gsis_id")
		name := rec.Get("full_name")
		if gsis == "" || name == "" {
			result.Skipped++
			return nil
		}
		err := playersUpsert.exec(ctx, q, []any{
			gsis, name, rec.Text("first_name"), rec.Text("last_name"),
			rec.Text("position"), rec.Text("team"), rec.Text("status"),
			rec.Int("jersey_number"), rec.Text("headshot_url"),
			rec.Int("height"), rec.Int("weight"), rec.Text("college"),
			rec.Int("years_exp"), rec.Int("entry_year"),
			rec.Text("espn_id"), rec.Text("sleeper_id"), rec.Text("yahoo_id"), rec.Text("pfr_id"),
		})
		return result.record(ctx, err, "player "+gsis)
	})
	if err != nil {
		result.AddErrorf("read roster %d: %v", season, err)
	}
	logger.Info("Players done", "season", season, "summary", result.Summary())
	return result
}

var gamesUpsert = newUpsert(config.GamesTable, []string{
	"game_id", "season", "game_type", "week", "gameday", "weekday", "gametime",
	"away_team", "away_score", "home_team", "home_score",
	"total_line", "spread_line", "roof", "surface", "temp", "wind",
}, []string{"game_id"}, "updated_at")

// SeedGames upserts the season's schedule. The nflverse schedule file spans
// every season, so rows are filtered here.
func SeedGames(ctx context.Context, q db.Querier, src CSVSource, season int, logger *slog.Logger) Result {
	var result Result
	logger.Info("Seeding games", "season", season)

	err := src.Each(ctx, nflverse.SchedulePath, func(rec nflverse.Record) error {
		if !inSeason(rec, season) {
			return nil
		}
		gameID := rec.Get("game_id")
		week := rec.Int("week")
		if gameID == "" || week == nil {
			result.Skipped++
			return nil
		}
		var gameday *time.Time
		if d := rec.Get("gameday"); d != "" {
			t, err := time.Parse("2006-01-02", d)
			if err != nil {
				result.AddErrorf("game %s: gameday %q: %v", gameID, d, err)
				return nil
			}
			gameday = &t
		}
		err := gamesUpsert.exec(ctx, q, []any{
			gameID, season, rec.Text("game_type"), *week, gameday,
			rec.Text("weekday"), rec.Text("gametime"),
			rec.Get("away_team"), rec.Int("away_score"), rec.Get("home_team"), rec.Int("home_score"),
			rec.Float("total_line"), rec.Float("spread_line"),
			rec.Text("roof"), rec.Text("surface"), rec.Int("temp"), rec.Int("wind"),
		})
		return result.record(ctx, err, "game "+gameID)
	})
	if err != nil {
		result.AddErrorf("read schedule: %v", err)
	}
	logger.Info("Games done", "season", season, "summary", result.Summary())
	return result
}

// weeklyStatColumns are copied verbatim from player_stats CSVs.
var weeklyStatColumns = []string{
	"completions", "attempts", "passing_yards", "passing_tds", "interceptions",
	"sacks", "sack_yards", "passing_air_yards", "passing_yards_after_catch",
	"passing_first_downs", "passing_epa", "passing_2pt_conversions", "pacr",
	"carries", "rushing_yards", "rushing_tds", "rushing_fumbles", "rushing_fumbles_lost",
	"rushing_first_downs", "rushing_epa", "rushing_2pt_conversions",
	"receptions", "targets", "receiving_yards", "receiving_tds", "receiving_fumbles",
	"receiving_fumbles_lost", "receiving_air_yards", "receiving_yards_after_catch",
	"receiving_first_downs", "receiving_epa", "receiving_2pt_conversions",
	"racr", "target_share", "air_yards_share", "wopr", "special_teams_tds",
	"fantasy_points", "fantasy_points_ppr",
}

var weeklyKeys = []string{"gsis_id", "season", "season_type", "week"}

var weeklyUpsert = newUpsert(config.WeeklyStatsTable,
	append([]string{"gsis_id", "player_id", "season", "season_type", "week", "recent_team", "opponent_team"},
		weeklyStatColumns...),
	weeklyKeys, "updated_at")

// SeedWeekly upserts one row per player-week. player_id is resolved from the
// GSIS id; rows for players missing from the roster keep a NULL player_id and
// are counted as skipped links.
func SeedWeekly(ctx context.Context, q db.Querier, src CSVSource, season int, logger *slog.Logger) Result {
	var result Result
	logger.Info("Seeding weekly stats", "season", season)

	ids, err := playerIDsByGSIS(ctx, q)
	if err != nil {
		result.AddErrorf("load player ids: %v", err)
		return result
	}

	err = src.Each(ctx, nflverse.PlayerStatsPath(season), func(rec nflverse.Record) error {
		if !inSeason(rec, season) {
			return nil
		}
		gsis := rec.Get("player_id")
		week := rec.Int("week")
		if gsis == "" || week == nil {
			result.Skipped++
			return nil
		}
		st := rec.Get("season_type")
		if st == "" {
			st = nfl.SeasonType(*week)
		}
		seasonType, err := nfl.ParseSeasonType(st)
		if err != nil {
			result.Skipped++
			return nil
		}
		var playerID *int
		if id, ok := ids[gsis]; ok {
			playerID = &id
			result.Linked++
		}
		values := []any{gsis, playerID, season, seasonType, *week, rec.Text(teamCol(rec)), rec.Text("opponent_team")}
		for _, col := range weeklyStatColumns {
			values = append(values, rec.Float(col))
		}
		return result.record(ctx, weeklyUpsert.exec(ctx, q, values),
			fmt.Sprintf("weekly %s week %s", gsis, nfl.WeekLabel(*week)))
	})
	if err != nil {
		result.AddErrorf("read player stats %d: %v", season, err)
	}
	logger.Info("Weekly stats done", "season", season, "summary", result.Summary())
	return result
}

// teamCol picks the team column. Newer player_stats releases renamed
// recent_team to team.
func teamCol(rec nflverse.Record) string {
	if rec.Has("recent_team") {
		return "recent_team"
	}
	return "team"
}

// seasonalRollupSQL aggregates weekly rows into season totals per season
// type. Rate columns are averaged, counting columns summed.
var seasonalRollupSQL = `INSERT INTO ` + config.SeasonalStatsTable + ` (
		gsis_id, player_id, season, season_type, games,
		completions, attempts, passing_yards, passing_tds, interceptions, sacks, passing_epa,
		carries, rushing_yards, rushing_tds, rushing_epa,
		receptions, targets, receiving_yards, receiving_tds, receiving_epa,
		target_share, air_yards_share, fantasy_points, fantasy_points_ppr)
	SELECT gsis_id, MAX(player_id), season, season_type, COUNT(*),
		SUM(completions), SUM(attempts), SUM(passing_yards), SUM(passing_tds), SUM(interceptions),
		SUM(sacks), SUM(passing_epa),
		SUM(carries), SUM(rushing_yards), SUM(rushing_tds), SUM(rushing_epa),
		SUM(receptions), SUM(targets), SUM(receiving_yards), SUM(receiving_tds), SUM(receiving_epa),
		AVG(target_share), AVG(air_yards_share), SUM(fantasy_points), SUM(fantasy_points_ppr)
	FROM ` + config.WeeklyStatsTable + `
	WHERE season = $1
	GROUP BY gsis_id, season, season_type
	ON CONFLICT (gsis_id, season, season_type) DO UPDATE SET
		player_id = EXCLUDED.player_id, games = EXCLUDED.games,
		completions = EXCLUDED.completions, attempts = EXCLUDED.attempts,
		passing_yards = EXCLUDED.passing_yards, passing_tds = EXCLUDED.passing_tds,
		interceptions = EXCLUDED.interceptions, sacks = EXCLUDED.sacks, passing_epa = EXCLUDED.passing_epa,
		carries = EXCLUDED.carries, rushing_yards = EXCLUDED.rushing_yards,
		rushing_tds = EXCLUDED.rushing_tds, rushing_epa = EXCLUDED.rushing_epa,
		receptions = EXCLUDED.receptions, targets = EXCLUDED.targets,
		receiving_yards = EXCLUDED.receiving_yards, receiving_tds = EXCLUDED.receiving_tds,
		receiving_epa = EXCLUDED.receiving_epa,
		target_share = EXCLUDED.target_share, air_yards_share = EXCLUDED.air_yards_share,
		fantasy_points = EXCLUDED.fantasy_points, fantasy_points_ppr = EXCLUDED.fantasy_points_ppr,
		updated_at = NOW()`

// SeedSeasonal rebuilds season totals from the weekly table.
func SeedSeasonal(ctx context.Context, q db.Querier, season int, logger *slog.Logger) Result {
	var result Result
	tag, err := q.Exec(ctx, seasonalRollupSQL, season)
	if err != nil {
		result.AddErrorf("seasonal rollup %d: %v", season, err)
		return result
	}
	result.Upserted = int(tag.RowsAffected())
	logger.Info("Seasonal stats done", "season", season, "summary", result.Summary())
	return result
}

// ngsColumns lists the metric columns per dataset; names match the CSVs.
var ngsColumns = map[nfl.NGSKind][]string{
	nfl.NGSPassing: {
		"avg_time_to_throw", "avg_completed_air_yards", "avg_intended_air_yards",
		"avg_air_yards_differential", "aggressiveness", "max_completed_air_distance",
		"avg_air_yards_to_sticks", "attempts", "pass_yards", "pass_touchdowns",
		"interceptions", "passer_rating", "completions", "completion_percentage",
		"expected_completion_percentage", "completion_percentage_above_expectation",
		"avg_air_distance", "max_air_distance",
	},
	nfl.NGSReceiving: {
		"avg_cushion", "avg_separation", "avg_intended_air_yards",
		"percent_share_of_intended_air_yards", "receptions", "targets",
		"catch_percentage", "yards", "rec_touchdowns", "avg_yac",
		"avg_expected_yac", "avg_yac_above_expectation",
	},
	nfl.NGSRushing: {
		"efficiency", "percent_attempts_gte_eight_defenders", "avg_time_to_los",
		"rush_attempts", "rush_yards", "avg_rush_yards", "rush_touchdowns",
		"expected_rush_yards", "rush_yards_over_expected",
		"rush_yards_over_expected_per_att", "rush_pct_over_expected",
	},
}

var ngsTables = map[nfl.NGSKind]string{
	nfl.NGSPassing:   config.NGSPassingTable,
	nfl.NGSReceiving: config.NGSReceivingTable,
	nfl.NGSRushing:   config.NGSRushingTable,
}

var ngsUpserts = func() map[nfl.NGSKind]*upsert {
	m := make(map[nfl.NGSKind]*upsert, len(ngsColumns))
	for kind, metrics := range ngsColumns {
		cols := append([]string{"gsis_id", "player_id", "season", "season_type", "week", "team_abbr"}, metrics...)
		m[kind] = newUpsert(ngsTables[kind], cols, weeklyKeys, "updated_at")
	}
	return m
}()

// SeedNGS upserts one next-gen-stats dataset for a season. Week 0 rows are
// the provider's season aggregate and are not stored.
func SeedNGS(ctx context.Context, q db.Querier, src CSVSource, kind nfl.NGSKind, season int, logger *slog.Logger) Result {
	var result Result
	up, ok := ngsUpserts[kind]
	if !ok {
		result.AddErrorf("unknown ngs dataset %q", kind)
		return result
	}
	logger.Info("Seeding NGS", "kind", kind, "season", season)

	ids, err := playerIDsByGSIS(ctx, q)
	if err != nil {
		result.AddErrorf("load player ids: %v", err)
		return result
	}

	err = src.Each(ctx, nflverse.NGSPath(kind), func(rec nflverse.Record) error {
		if !inSeason(rec, season) {
			return nil
		}
		gsis := rec.Get("player_gsis_id")
		week := rec.Int("week")
		seasonType, stErr := nfl.ParseSeasonType(rec.Get("season_type"))
		if gsis == "" || week == nil || *week == 0 || stErr != nil {
			result.Skipped++
			return nil
		}
		var playerID *int
		if id, ok := ids[gsis]; ok {
			playerID = &id
			result.Linked++
		}
		values := []any{gsis, playerID, season, seasonType, *week, rec.Text("team_abbr")}
		for _, col := range ngsColumns[kind] {
			values = append(values, rec.Float(col))
		}
		return result.record(ctx, up.exec(ctx, q, values),
			fmt.Sprintf("ngs %s %s week %d", kind, gsis, *week))
	})
	if err != nil {
		result.AddErrorf("read ngs %s: %v", kind, err)
	}
	logger.Info("NGS done", "kind", kind, "season", season, "summary", result.Summary())
	return result
}

func inSeason(rec nflverse.Record, season int) bool {
	s, err := strconv.Atoi(rec.Get("season"))
	return err == nil && s == season
}

func playerIDsByGSIS(ctx context.Context, q db.Querier) (map[string]int, error) {
	rows, err := q.Query(ctx, db.StmtPlayerIDsByGSIS)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int)
	for rows.Next() {
		var gsis string
		var id int
		if err := rows.Scan(&gsis, &id); err != nil {
			return nil, err
		}
		ids[gsis] = id
	}
	return ids, rows.Err()
}

// record counts a row outcome. Context cancellation aborts the iteration;
// any other failure is kept and the run continues.
func (r *Result) record(ctx context.Context, err error, what string) error {
	if err == nil {
		r.Upserted++
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	r.AddError(what + ": " + err.Error())
	return nil
}
