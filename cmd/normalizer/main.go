package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"card-tracker/internal/config"
	"card-tracker/internal/database"
	"card-tracker/internal/logging"
	"card-tracker/internal/pricing"
	"card-tracker/internal/services"
	"card-tracker/internal/services/feeds"
	"card-tracker/internal/store"

	"github.com/joho/godotenv"
)

var (
	source     = flag.String("source", "", "vendor source to ingest (required)")
	dbURL      = flag.String("db", "", "database connection string (overrides DATABASE_URL)")
	ingestDate = flag.String("ingest-date", "", "fallback as-of date YYYY-MM-DD (default: today UTC)")
	useHTTP    = flag.Bool("http", false, "fetch rows from the feed endpoint instead of the landed table")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}
	logger := logging.New("normalizer", cfg.Environment)

	if *source == "" {
		logger.Fatal().Msg("-source is required")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	feed, err := feeds.Lookup(*source)
	if err != nil {
		logger.Fatal().Err(err).Msg("unknown vendor source")
	}

	day := pricing.Day(time.Now().UTC())
	if *ingestDate != "" {
		parsed, err := time.Parse("2006-01-02", *ingestDate)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid -ingest-date")
		}
		day = pricing.Day(parsed)
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	var rows feeds.RowSource = feeds.NewTableSource(db)
	if *useHTTP {
		api := cfg.FeedAPI(*source)
		if api.URL == "" {
			logger.Fatal().Str("source", *source).
				Msgf("no endpoint configured; set FEED_%s_URL", strings.ToUpper(*source))
		}
		feed.Endpoint = api.URL
		rows = feeds.NewHTTPSource(api.Key)
	}

	normalizer := services.NewNormalizer(rows, store.NewSnapshots(db), logger)
	summary, err := normalizer.Run(context.Background(), feed, day)
	if err != nil {
		logger.Error().Err(err).Str("source", *source).Msg("normalization run failed")
		os.Exit(1)
	}

	logger.Info().
		Int("rows", summary.Rows).
		Int("snapshots", summary.Snapshots).
		Int("skipped_rows", summary.SkippedRows).
		Msg("done")
}
