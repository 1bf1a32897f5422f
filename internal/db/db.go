// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migration and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/StevenLove/fantazy/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Querier is the subset of pgxpool.Pool the store and seeders use. Both
// *pgxpool.Pool and pgxmock pools satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, StmtHealthCheck).Scan(&n)
}

// Migrate applies the embedded schema. Statements are idempotent so it is
// safe to run on every deploy. Connections opened before the schema existed
// fail statement preparation, so run it on a plain connection before New.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Statement names. Handlers and the store pass these to Query/QueryRow/Exec;
// pgx resolves a registered name to its prepared statement.
const (
	StmtHealthCheck   = "health_check"
	StmtPlayersList   = "players_list"
	StmtPlayerByID    = "player_by_id"
	StmtGamesBySeason = "games_by_season"
	StmtGameByID      = "game_by_id"
	StmtSeasonalStats = "seasonal_stats"
	StmtWeeklyForWeek = "weekly_stats_for_week"
	StmtPropsForGame  = "props_for_game"
	StmtCardByID      = "card_by_id"
	StmtDeleteCard    = "delete_card"

	StmtNGSPassing          = "ngs_passing"
	StmtNGSReceiving        = "ngs_receiving"
	StmtNGSRushing          = "ngs_rushing"
	StmtNGSPassingForWeek   = "ngs_passing_for_week"
	StmtNGSReceivingForWeek = "ngs_receiving_for_week"
	StmtNGSRushingForWeek   = "ngs_rushing_for_week"

	StmtPlayersForMatching = "players_for_matching"
	StmtPlayerIDsByGSIS    = "player_ids_by_gsis"
	StmtGamesBetweenTeams  = "games_between_teams"
	StmtNotifyRefreshed    = "notify_stats_refreshed"
)

// CardSelectSQL selects a card with its field keys aggregated in display
// order. Callers append WHERE predicates and must finish with GROUP BY pc.id.
const CardSelectSQL = `
	SELECT pc.id, pc.name, pc.description, pc.type, pc.timeframe,
		pc.position_qb, pc.position_rb, pc.position_wr, pc.position_te, pc.position_k,
		pc.graph_config, pc.created_by, pc.is_default, pc.created_at, pc.updated_at,
		COALESCE(
			ARRAY_AGG(pcf.field_name ORDER BY pcf.display_order)
				FILTER (WHERE pcf.field_name IS NOT NULL),
			'{}'
		) AS fields
	FROM ` + config.CardsTable + ` pc
	LEFT JOIN ` + config.CardFieldsTable + ` pcf ON pcf.player_card_id = pc.id`

// playerSelectSQL exposes a player row with player_name as name.
const playerSelectSQL = `SELECT p.id, p.gsis_id, p.player_name AS name, p.first_name, p.last_name,
		p.position, p.team, p.status, p.jersey_number, p.headshot_url, p.height, p.weight,
		p.college, p.years_exp, p.entry_year, p.espn_id, p.sleeper_id, p.yahoo_id, p.pfr_id,
		p.updated_at
	FROM players p`

func ngsSeasonSQL(table string) string {
	return "SELECT COALESCE(json_agg(row_to_json(n) ORDER BY n.week), '[]'::json) FROM " + table +
		" n WHERE n.player_id = $1 AND n.season = $2"
}

func ngsWeekSQL(table string) string {
	return "SELECT row_to_json(n) FROM " + table +
		" n WHERE n.player_id = $1 AND n.season = $2 AND n.week = $3 ORDER BY n.season_type LIMIT 1"
}

// Statements maps statement names to SQL. Exposed for tests.
var Statements = map[string]string{
	// Health
	StmtHealthCheck: "SELECT 1",

	// API: players (Postgres returns complete JSON)
	StmtPlayersList: `SELECT COALESCE(json_agg(row_to_json(r) ORDER BY r.position, r.name), '[]'::json)
		FROM (` + playerSelectSQL + `
			WHERE p.position = ANY($1::text[]) AND ($2::text = '' OR p.status = $2)) r`,
	StmtPlayerByID: "SELECT row_to_json(r) FROM (" + playerSelectSQL + " WHERE p.id = $1) r",

	// API: games
	StmtGamesBySeason: `SELECT COALESCE(json_agg(row_to_json(g) ORDER BY g.gameday, g.game_id), '[]'::json)
		FROM games g
		WHERE g.season = $1 AND ($2::int IS NULL OR g.week = $2)`,
	StmtGameByID: "SELECT row_to_json(g), g.season, g.week FROM games g WHERE g.game_id = $1",

	// API: stats
	StmtSeasonalStats: `SELECT row_to_json(r) FROM (
			SELECT s.*, p.player_name, p.position, p.team
			FROM player_seasonal_stats s
			JOIN players p ON p.id = s.player_id
			WHERE s.player_id = $1 AND s.season = $2 AND s.season_type = $3
			LIMIT 1
		) r`,
	StmtWeeklyForWeek: `SELECT row_to_json(w) FROM player_weekly_stats w
		WHERE w.player_id = $1 AND w.season = $2 AND w.week = $3
		ORDER BY w.season_type LIMIT 1`,
	StmtNGSPassing:          ngsSeasonSQL(config.NGSPassingTable),
	StmtNGSReceiving:        ngsSeasonSQL(config.NGSReceivingTable),
	StmtNGSRushing:          ngsSeasonSQL(config.NGSRushingTable),
	StmtNGSPassingForWeek:   ngsWeekSQL(config.NGSPassingTable),
	StmtNGSReceivingForWeek: ngsWeekSQL(config.NGSReceivingTable),
	StmtNGSRushingForWeek:   ngsWeekSQL(config.NGSRushingTable),

	// API: props
	StmtPropsForGame: `SELECT COALESCE(json_agg(row_to_json(pp) ORDER BY pp.bookmaker), '[]'::json)
		FROM player_props pp
		WHERE pp.player_id = $1 AND pp.game_id = $2`,

	// API: player cards
	StmtCardByID:   "SELECT row_to_json(c) FROM (" + CardSelectSQL + " WHERE pc.id = $1 GROUP BY pc.id) c",
	StmtDeleteCard: "DELETE FROM player_cards WHERE id = $1",

	// Ingestion: reconciliation and id resolution
	StmtPlayersForMatching: `SELECT id, player_name, COALESCE(position, ''), COALESCE(team, '')
		FROM players WHERE position = ANY($1::text[])`,
	StmtPlayerIDsByGSIS: "SELECT gsis_id, id FROM players WHERE gsis_id IS NOT NULL",
	StmtGamesBetweenTeams: `SELECT game_id, gameday FROM games
		WHERE ((home_team = $1 AND away_team = $2) OR (home_team = $2 AND away_team = $1))
		  AND gameday IS NOT NULL
		ORDER BY ABS(gameday - $3::date), game_id
		LIMIT 1`,

	// Ingestion: cache invalidation
	StmtNotifyRefreshed: "SELECT pg_notify('" + config.StatsRefreshedChannel + "', $1)",
}

// registerPreparedStatements registers all statements the API and ingestion
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
