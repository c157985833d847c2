// Package commands implements the CLI subcommands for the backstop binary.
package commands

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/backstop-systems/backstop/pkg/types"
)

// newLogger builds the process logger from config: tint for terminals,
// JSON for log shippers.
func newLogger(cfg *types.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	format := "text"
	if cfg != nil {
		level = parseLevel(cfg.Level)
		if cfg.Format != "" {
			format = cfg.Format
		}
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
