package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"card-tracker/internal/config"
	"card-tracker/internal/database"
	"card-tracker/internal/logging"
	"card-tracker/internal/notify"
	"card-tracker/internal/pricing"
	"card-tracker/internal/services"
	"card-tracker/internal/services/feeds"
	"card-tracker/internal/store"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

var (
	normalizeSpec = flag.String("normalize-cron", "0 * * * *", "schedule for feed ingestion")
	backfillSpec  = flag.String("backfill-cron", "30 2 * * *", "schedule for the trailing-window backfill")
	alertSpec     = flag.String("alert-cron", "*/15 * * * *", "schedule for alert scans")
)

// The daemon strings the three batch jobs onto one cron so a single
// process can keep a deployment current without external scheduling.
func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New("daemon", cfg.Environment)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	snapshots := store.NewSnapshots(db)
	dailyValues := store.NewDailyValues(db)

	var notifier notify.Notifier = &notify.LogNotifier{Logger: logger}
	if cfg.KafkaBrokers != "" {
		kn, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to Kafka")
		}
		defer kn.Close()
		notifier = kn
	}

	normalizer := services.NewNormalizer(feeds.NewTableSource(db), snapshots, logger)
	backfiller := services.NewBackfiller(snapshots, dailyValues, logger)
	scanner := services.NewAlertScanner(store.NewAlertRules(db), snapshots, notifier, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New()

	if _, err := c.AddFunc(*normalizeSpec, func() {
		today := pricing.Day(time.Now().UTC())
		for _, feed := range feeds.All() {
			if _, err := normalizer.Run(ctx, feed, today); err != nil {
				logger.Error().Err(err).
					Str("source", string(feed.Source)).
					Msg("scheduled ingestion failed")
			}
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("invalid -normalize-cron")
	}

	if _, err := c.AddFunc(*backfillSpec, func() {
		_, err := backfiller.Run(ctx, services.BackfillOptions{
			Days:     cfg.BackfillDays,
			Currency: cfg.DefaultCurrency,
			Workers:  cfg.BackfillWorkers,
		})
		if err != nil {
			logger.Error().Err(err).Msg("scheduled backfill failed")
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("invalid -backfill-cron")
	}

	if _, err := c.AddFunc(*alertSpec, func() {
		if _, err := scanner.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("scheduled alert scan failed")
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("invalid -alert-cron")
	}

	c.Start()
	logger.Info().Msg("daemon started")

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	// Let in-flight jobs finish before exiting.
	<-c.Stop().Done()
}
