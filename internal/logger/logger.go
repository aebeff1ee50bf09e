package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the service logger. The level field is named "severity" so that
// Cloud Logging picks up the level without a parser.
func New(env string) zerolog.Logger {
	return newWithWriter(env, os.Stderr)
}

func newWithWriter(env string, w io.Writer) zerolog.Logger {
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).
			With().Timestamp().Logger().
			Level(zerolog.DebugLevel)
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}
