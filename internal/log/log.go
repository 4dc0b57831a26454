// Package log provides the logging infrastructure shared by all finsight
// components.
//
// Loggers are injected, never global: every constructor takes a
// log.Logger and derives its component context with logger.With. The
// type is an alias for *slog.Logger, so the standard slog API stays
// available without adapter layers.
//
//	logger := log.New(log.Config{Level: slog.LevelDebug})
//	client, err := relay.New(cfg, logger.With("component", "relay"))
//
// Tests either discard output with NewNop or capture it:
//
//	var buf bytes.Buffer
//	logger := log.NewWithWriter(&buf, log.Config{})
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is what components depend on. Aliasing *slog.Logger keeps call
// sites on the standard API with no custom interface to satisfy.
type Logger = *slog.Logger

// Config selects the handler and its verbosity.
type Config struct {
	// Level is the minimum level that gets emitted. Zero value is Info.
	Level slog.Level

	// JSON switches from the human-readable text handler to JSON lines.
	JSON bool

	// AddSource annotates every record with the emitting file and line.
	AddSource bool
}

// New returns a logger writing to stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewNop returns a logger that drops everything. Test use only: wiring
// it into a running server hides the logs that explain failures.
func NewNop() Logger {
	return slog.New(slog.DiscardHandler)
}
