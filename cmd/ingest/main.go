// Command ingest is the Fantazy data ingestion CLI.
//
// Usage:
//
//	fantazy-ingest migrate
//	fantazy-ingest seed fields
//	fantazy-ingest seed all --season 2024
//	fantazy-ingest seed ngs --season 2024 --type rushing
//	fantazy-ingest seed sleeper
//	fantazy-ingest props collect
//	fantazy-ingest props import --workers 4
//	fantazy-ingest nightly --cron "0 4 * * *"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/StevenLove/fantazy/internal/catalog"
	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/maintenance"
	"github.com/StevenLove/fantazy/internal/nfl"
	"github.com/StevenLove/fantazy/internal/provider/nflverse"
	"github.com/StevenLove/fantazy/internal/provider/oddsapi"
	"github.com/StevenLove/fantazy/internal/provider/sleeper"
	"github.com/StevenLove/fantazy/internal/seed"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "fantazy-ingest",
		Short: "Fantazy data ingestion CLI",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(propsCmd())
	root.AddCommand(nightlyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// A plain connection: pool connections prepare statements
			// against tables that may not exist yet.
			conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer conn.Close(context.Background())

			if err := db.Migrate(ctx, conn); err != nil {
				return err
			}
			logger.Info("Schema applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed data from nflverse and Sleeper",
	}
	cmd.AddCommand(seedFieldsCmd())
	cmd.AddCommand(seedSleeperCmd())
	cmd.AddCommand(seedSeasonCmd("players", "Seed the season roster", db.DatasetPlayers, seed.SeedPlayers))
	cmd.AddCommand(seedSeasonCmd("games", "Seed the season schedule", db.DatasetGames, seed.SeedGames))
	cmd.AddCommand(seedSeasonCmd("weekly", "Seed weekly player stats", db.DatasetWeekly, seed.SeedWeekly))
	cmd.AddCommand(seedSeasonalCmd())
	cmd.AddCommand(seedNGSCmd())
	cmd.AddCommand(seedAllCmd())
	return cmd
}

type seasonSeeder func(ctx context.Context, q db.Querier, src seed.CSVSource, season int, logger *slog.Logger) seed.Result

func seedSeasonCmd(use, short, dataset string, run seasonSeeder) *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   use,
		Short: short + " from nflverse",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				season = seasonOr(season, cfg)
				src := nflverse.NewClient(cfg.NFLVerseBaseURL, logger)
				start := time.Now()
				result := run(ctx, pool.Pool, src, season, logger)
				announce(ctx, pool, dataset, season, result)
				return report(use+" seed", start, result)
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season year (default NFL_SEASON)")
	return cmd
}

func seedSeasonalCmd() *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "seasonal",
		Short: "Roll weekly stats up into seasonal totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				season = seasonOr(season, cfg)
				start := time.Now()
				result := seed.SeedSeasonal(ctx, pool.Pool, season, logger)
				announce(ctx, pool, db.DatasetSeasonal, season, result)
				return report("seasonal seed", start, result)
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season year (default NFL_SEASON)")
	return cmd
}

func seedNGSCmd() *cobra.Command {
	var (
		season int
		kind   string
	)
	cmd := &cobra.Command{
		Use:   "ngs",
		Short: "Seed next-gen stats from nflverse",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := nfl.ParseNGSType(kind)
			if err != nil {
				return err
			}
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				season = seasonOr(season, cfg)
				src := nflverse.NewClient(cfg.NFLVerseBaseURL, logger)
				start := time.Now()
				var result seed.Result
				for _, k := range kinds {
					result.Add(seed.SeedNGS(ctx, pool.Pool, src, k, season, logger))
				}
				announce(ctx, pool, db.DatasetNGS, season, result)
				return report("ngs seed", start, result)
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season year (default NFL_SEASON)")
	cmd.Flags().StringVar(&kind, "type", "all", "Dataset (all, passing, receiving, rushing)")
	return cmd
}

func seedFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "Seed the player card field catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				fields, err := catalog.Default()
				if err != nil {
					return err
				}
				start := time.Now()
				result := seed.SeedFields(ctx, pool.Pool, fields, logger)
				announce(ctx, pool, db.DatasetFields, 0, result)
				return report("fields seed", start, result)
			})
		},
	}
}

func seedSleeperCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sleeper",
		Short: "Link Sleeper and GSIS player ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				start := time.Now()
				result := seed.LinkSleeper(ctx, pool.Pool, sleeper.NewClient(cfg.SleeperBaseURL, logger), logger)
				if result.Linked > 0 {
					seed.Announce(ctx, pool.Pool, db.DatasetPlayers, 0, logger)
				}
				return report("sleeper link", start, result)
			})
		},
	}
}

func seedAllCmd() *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Seed players, games, weekly, seasonal and NGS for a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				season = seasonOr(season, cfg)
				src := nflverse.NewClient(cfg.NFLVerseBaseURL, logger)
				start := time.Now()
				result := seed.SeedAll(ctx, pool.Pool, src, season, logger)
				if err := maintenance.AnalyzeTables(ctx, pool.Pool, logger); err != nil {
					result.AddErrorf("%v", err)
				}
				return report("seed all", start, result)
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season year (default NFL_SEASON)")
	return cmd
}

// --------------------------------------------------------------------------
// props command
// --------------------------------------------------------------------------

func propsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "props",
		Short: "Collect and import player props from The Odds API",
	}
	cmd.AddCommand(propsCollectCmd())
	cmd.AddCommand(propsImportCmd())
	return cmd
}

func propsCollectCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Snapshot upcoming events and their prop markets to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if len(cfg.OddsAPIKeys) == 0 {
				return fmt.Errorf("ODDS_API_KEY or ODDS_API_KEYS is required")
			}
			if dir == "" {
				dir = cfg.DataDir
			}
			start := time.Now()
			result := seed.CollectProps(ctx, oddsClient(cfg), dir, cfg.OddsEventDelay, logger)
			return report("props collect", start, result)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Snapshot directory (default DATA_DIR)")
	return cmd
}

func propsImportCmd() *cobra.Command {
	var (
		dir     string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load prop snapshots into player_props",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if dir == "" {
					dir = cfg.DataDir
				}
				if workers == 0 {
					workers = cfg.ImportWorkers
				}
				start := time.Now()
				result := seed.ImportProps(ctx, pool.Pool, dir, workers, logger)
				announce(ctx, pool, db.DatasetProps, 0, result)
				return report("props import", start, result)
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Snapshot directory (default DATA_DIR)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent snapshot workers (default IMPORT_WORKERS)")
	return cmd
}

// --------------------------------------------------------------------------
// nightly command
// --------------------------------------------------------------------------

func nightlyCmd() *cobra.Command {
	var (
		spec   string
		runNow bool
	)
	cmd := &cobra.Command{
		Use:   "nightly",
		Short: "Run seed all and props collect+import on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if spec == "" {
					spec = cfg.NightlySchedule
				}
				job := func(ctx context.Context) {
					start := time.Now()
					_ = report("nightly", start, nightly(ctx, cfg, pool))
				}

				s := maintenance.New(logger)
				if _, err := s.Add(ctx, maintenance.Job{Name: "nightly", Spec: spec, Run: job}); err != nil {
					return err
				}
				if runNow {
					job(ctx)
				}
				s.Run(ctx, 30*time.Second)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", "Cron expression (default NIGHTLY_SCHEDULE)")
	cmd.Flags().BoolVar(&runNow, "now", false, "Run once immediately before waiting for the schedule")
	return cmd
}

// nightly refreshes the current season, then props, then prunes old
// snapshots. Props are skipped when no Odds API key is configured.
func nightly(ctx context.Context, cfg *config.Config, pool *db.Pool) seed.Result {
	var result seed.Result
	src := nflverse.NewClient(cfg.NFLVerseBaseURL, logger)

	result.Add(seed.SeedAll(ctx, pool.Pool, src, cfg.CurrentSeason, logger))
	linked := seed.LinkSleeper(ctx, pool.Pool, sleeper.NewClient(cfg.SleeperBaseURL, logger), logger)
	result.Add(linked)
	if linked.Linked > 0 {
		seed.Announce(ctx, pool.Pool, db.DatasetPlayers, 0, logger)
	}

	if len(cfg.OddsAPIKeys) > 0 {
		result.Add(seed.CollectProps(ctx, oddsClient(cfg), cfg.DataDir, cfg.OddsEventDelay, logger))
		imported := seed.ImportProps(ctx, pool.Pool, cfg.DataDir, cfg.ImportWorkers, logger)
		result.Add(imported)
		announce(ctx, pool, db.DatasetProps, 0, imported)
	} else {
		logger.Info("Skipping props: no Odds API keys configured")
	}

	if _, err := maintenance.PruneSnapshots(cfg.DataDir, cfg.SnapshotMaxAge, time.Now(), logger); err != nil {
		result.AddErrorf("prune snapshots: %v", err)
	}
	if err := maintenance.AnalyzeTables(ctx, pool.Pool, logger); err != nil {
		result.AddErrorf("%v", err)
	}
	return result
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runSeed handles config loading, DB connection, and context cancellation.
func runSeed(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func oddsClient(cfg *config.Config) *oddsapi.Client {
	return oddsapi.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKeys, cfg.OddsRequestsPerMinute, logger)
}

func seasonOr(season int, cfg *config.Config) int {
	if season == 0 {
		return cfg.CurrentSeason
	}
	return season
}

func announce(ctx context.Context, pool *db.Pool, dataset string, season int, r seed.Result) {
	if r.Upserted > 0 {
		seed.Announce(ctx, pool.Pool, dataset, season, logger)
	}
}

// report logs the outcome of a run. Row-level errors are logged, not
// returned: a partial load is still a successful command.
func report(name string, start time.Time, r seed.Result) error {
	logger.Info(name+" finished", "duration", time.Since(start).Round(time.Second), "summary", r.Summary())
	for _, e := range r.Errors {
		logger.Error(name+" error", "error", e)
	}
	return nil
}
