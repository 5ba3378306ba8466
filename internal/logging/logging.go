package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the logger for one job. Development gets a console writer;
// everything else emits JSON for log shipping.
func New(job, environment string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if environment == "development" {
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		return zerolog.New(out).With().Timestamp().Str("job", job).Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Str("job", job).Logger()
}
