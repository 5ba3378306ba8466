package main

import (
	"context"
	"flag"
	"os"

	"card-tracker/internal/config"
	"card-tracker/internal/database"
	"card-tracker/internal/logging"
	"card-tracker/internal/notify"
	"card-tracker/internal/services"
	"card-tracker/internal/store"

	"github.com/joho/godotenv"
)

var (
	dbURL   = flag.String("db", "", "database connection string (overrides DATABASE_URL)")
	brokers = flag.String("brokers", "", "Kafka brokers (overrides KAFKA_BROKERS; empty logs instead)")
	topic   = flag.String("topic", "", "Kafka topic (overrides KAFKA_TOPIC)")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}
	if *brokers != "" {
		cfg.KafkaBrokers = *brokers
	}
	if *topic != "" {
		cfg.KafkaTopic = *topic
	}
	logger := logging.New("alert-scan", cfg.Environment)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	var notifier notify.Notifier = &notify.LogNotifier{Logger: logger}
	if cfg.KafkaBrokers != "" {
		kn, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to Kafka")
		}
		defer kn.Close()
		notifier = kn
	}

	scanner := services.NewAlertScanner(store.NewAlertRules(db), store.NewSnapshots(db), notifier, logger)
	summary, err := scanner.Run(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("alert scan failed")
		os.Exit(1)
	}

	logger.Info().
		Int("rules", summary.Rules).
		Int("fired", summary.Fired).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("done")
}
