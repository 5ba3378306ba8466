package main

import (
	"net/http"

	"card-tracker/internal/api"
	"card-tracker/internal/config"
	"card-tracker/internal/database"
	"card-tracker/internal/fx"
	"card-tracker/internal/logging"
	"card-tracker/internal/services"
	"card-tracker/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Read-only query surface over the reconciled series for the storefront
// and collection apps. All writes happen in the cmd/ batch jobs.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New("api", cfg.Environment)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	snapshots := store.NewSnapshots(db)
	dailyValues := store.NewDailyValues(db)
	valuer := services.NewValuer(
		store.NewHoldings(db),
		dailyValues,
		snapshots,
		fx.NewStaticConverter(nil),
		logger,
	)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.SetupRoutes(r.Group("/api"), dailyValues, valuer, cfg.DefaultCurrency)

	logger.Info().Str("port", cfg.Port).Msg("query surface listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
