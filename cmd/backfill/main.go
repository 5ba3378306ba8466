package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"card-tracker/internal/config"
	"card-tracker/internal/database"
	"card-tracker/internal/logging"
	"card-tracker/internal/services"
	"card-tracker/internal/store"

	"github.com/joho/godotenv"
)

var (
	start    = flag.String("start", "", "range start YYYY-MM-DD (overrides -days)")
	end      = flag.String("end", "", "range end YYYY-MM-DD (default: today UTC)")
	days     = flag.Int("days", 90, "trailing window size when -start is not given")
	currency = flag.String("currency", "USD", "currency of the series to materialize")
	dryRun   = flag.Bool("dry-run", false, "report the planned range without writing")
	workers  = flag.Int("workers", 0, "per-day upsert workers (default: BACKFILL_WORKERS)")
	dbURL    = flag.String("db", "", "database connection string (overrides DATABASE_URL)")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}
	logger := logging.New("backfill", cfg.Environment)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	opts := services.BackfillOptions{
		Days:     *days,
		Currency: *currency,
		DryRun:   *dryRun,
		Workers:  cfg.BackfillWorkers,
	}
	if *workers > 0 {
		opts.Workers = *workers
	}
	var err error
	if opts.Start, err = parseDate(*start); err != nil {
		logger.Fatal().Err(err).Msg("invalid -start")
	}
	if opts.End, err = parseDate(*end); err != nil {
		logger.Fatal().Err(err).Msg("invalid -end")
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// SIGINT/SIGTERM finish the in-flight day, then stop.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backfiller := services.NewBackfiller(store.NewSnapshots(db), store.NewDailyValues(db), logger)
	summary, err := backfiller.Run(ctx, opts)
	if err != nil {
		logger.Error().Err(err).Msg("backfill failed")
		os.Exit(1)
	}

	logger.Info().
		Time("start", summary.Start).
		Time("end", summary.End).
		Int("total_upserts", summary.TotalUpserts).
		Bool("dry_run", summary.DryRun).
		Bool("cancelled", summary.Cancelled).
		Msg("done")
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
