// Package logging builds the one zerolog.Logger each process (supervisor,
// worker N, tick) carries for the rest of its life, tagged with its role.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a role-tagged logger. pretty selects a human-readable console
// writer (development); otherwise lines are newline-delimited JSON
// (production/aggregated collection). level is parsed with zerolog's own
// level names ("debug", "info", "warn", "error"); an unrecognized level
// falls back to info rather than failing startup.
func New(role string, pretty bool, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stderr
	if pretty {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Str("role", role).Logger()
}

// ForWorker builds a worker-role logger additionally tagged with its id.
func ForWorker(id int, pretty bool, level string) zerolog.Logger {
	return New("worker", pretty, level).With().Int("worker_id", id).Logger()
}
