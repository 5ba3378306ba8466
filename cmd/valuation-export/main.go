package main

import (
	"context"
	"flag"
	"os"

	"card-tracker/internal/config"
	"card-tracker/internal/database"
	"card-tracker/internal/fx"
	"card-tracker/internal/logging"
	"card-tracker/internal/services"
	"card-tracker/internal/store"

	"github.com/joho/godotenv"
)

var (
	owner    = flag.Uint("owner", 0, "owner id to export (required)")
	kind     = flag.String("kind", "price-lot", "export kind: price-lot, high-value-filter, tax-lot, insurance")
	format   = flag.String("format", "csv", "output format: csv or xlsx")
	out      = flag.String("out", "", "output file (default: stdout, csv only)")
	currency = flag.String("currency", "USD", "valuation currency")
	dbURL    = flag.String("db", "", "database connection string (overrides DATABASE_URL)")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}
	logger := logging.New("valuation-export", cfg.Environment)

	if *owner == 0 {
		logger.Fatal().Msg("-owner is required")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	exportKind, err := services.ParseExportKind(*kind)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid -kind")
	}
	if *format != "csv" && *format != "xlsx" {
		logger.Fatal().Str("format", *format).Msg("invalid -format")
	}
	if *format == "xlsx" && *out == "" {
		logger.Fatal().Msg("-out is required for xlsx output")
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	snapshots := store.NewSnapshots(db)
	valuer := services.NewValuer(
		store.NewHoldings(db),
		store.NewDailyValues(db),
		snapshots,
		fx.NewStaticConverter(nil),
		logger,
	)

	portfolio, err := valuer.Valuate(context.Background(), *owner, *currency)
	if err != nil {
		logger.Error().Err(err).Msg("valuation failed")
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create output file")
		}
		defer f.Close()
		w = f
	}

	if *format == "xlsx" {
		err = services.ExportXLSX(w, exportKind, portfolio)
	} else {
		err = services.ExportCSV(w, exportKind, portfolio)
	}
	if err != nil {
		logger.Error().Err(err).Msg("export failed")
		os.Exit(1)
	}

	logger.Info().
		Int("holdings", len(portfolio.Holdings)).
		Int("priced", portfolio.Priced).
		Int("unpriced", portfolio.Unpriced).
		Str("kind", string(exportKind)).
		Msg("done")
}
