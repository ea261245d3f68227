package app

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/config"
)

// NewLogger builds the process logger. Pretty output is meant for
// terminals; the default is one JSON object per line.
func NewLogger(cfg config.LogConfig, service string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
