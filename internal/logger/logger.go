// Package logger builds the process zerolog logger for the gallery binaries.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the process logger.
type Config struct {
	// Level is one of zerolog's level names. Unknown values fall back to info.
	Level string
	// Pretty selects the human console format instead of JSON lines.
	Pretty bool
	// Redact masks bearer tokens and forwarded credential cookies.
	Redact bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

// New returns a timestamped logger for cfg.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stdout
	if cfg.Output != nil {
		w = cfg.Output
	}
	if cfg.Redact {
		w = NewRedactor().Wrap(w)
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: cfg.Output != nil}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}
