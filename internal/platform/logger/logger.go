package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process-wide structured logger.
func New() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// NewConsole returns a human-readable logger for local development.
func NewConsole() zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	return zerolog.New(w).With().Timestamp().Logger()
}
