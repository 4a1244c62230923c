// Package log provides structured logging for wildfire, backed by zerolog.
//
// The package keeps a single process-wide logger. Library code obtains child
// loggers through With so that model name and operation travel with every
// event:
//
//	logger := log.With().Str("model", "RandomForestRegressor").Logger()
//	logger.Info().Int("n_samples", n).Msg("training started")
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// Setup configures the process-wide logger. level accepts the usual zerolog
// names (debug, info, warn, error); json selects machine-readable output
// instead of the console writer.
func Setup(level string, json bool, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if !json {
		w = zerolog.ConsoleWriter{Out: out}
	}

	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Logger returns the process-wide logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With starts a child logger context.
func With() zerolog.Context {
	return Logger().With()
}

// Debug starts a debug-level event.
func Debug() *zerolog.Event { l := Logger(); return l.Debug() }

// Info starts an info-level event.
func Info() *zerolog.Event { l := Logger(); return l.Info() }

// Warn starts a warn-level event.
func Warn() *zerolog.Event { l := Logger(); return l.Warn() }

// Error starts an error-level event.
func Error() *zerolog.Event { l := Logger(); return l.Error() }
