package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"card-tracker/internal/pricing"
)

type Config struct {
	DatabaseURL string
	Port        string
	Environment string

	// Pipeline defaults
	DefaultCurrency string
	BackfillDays    int
	BackfillWorkers int

	// Notification transport (optional; the scanner logs instead when empty)
	KafkaBrokers string
	KafkaTopic   string

	// Vendor feed API access for HTTP-backed feeds, keyed by source name.
	// Populated from FEED_<SOURCE>_URL / FEED_<SOURCE>_KEY pairs, e.g.
	// FEED_TCGPLAYER_URL.
	Feeds map[string]FeedAPI
}

// FeedAPI is one vendor's HTTP feed access.
type FeedAPI struct {
	URL string
	Key string
}

// FeedAPI returns the configured endpoint for a source; the zero value
// means the source is table-backed only.
func (c *Config) FeedAPI(source string) FeedAPI {
	return c.Feeds[strings.ToLower(source)]
}

func Load() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),
		BackfillDays:    getEnvInt("BACKFILL_DAYS", 90),
		BackfillWorkers: getEnvInt("BACKFILL_WORKERS", 8),

		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "price-alerts"),

		Feeds: loadFeedAPIs(),
	}
}

func loadFeedAPIs() map[string]FeedAPI {
	feeds := make(map[string]FeedAPI)
	for _, source := range pricing.KnownSources() {
		name := strings.ToUpper(string(source))
		api := FeedAPI{
			URL: getEnv("FEED_"+name+"_URL", ""),
			Key: getEnv("FEED_"+name+"_KEY", ""),
		}
		if api.URL != "" || api.Key != "" {
			feeds[string(source)] = api
		}
	}
	return feeds
}

// Validate checks the configuration a batch job cannot run without. Jobs
// call this before touching the store so a misconfigured run fails before
// any work begins.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DefaultCurrency == "" {
		return fmt.Errorf("DEFAULT_CURRENCY must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
