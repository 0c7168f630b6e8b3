// Package logging wires a slog.Logger that writes to both stdout and a
// log file opened in append mode (it is not rotated), the way
// services/gamification's core package sets up its logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger is an alias so callers don't need to import log/slog directly.
type Logger = slog.Logger

// New creates a slog logger writing to stdout and dir/quizhub.log.
func New(dir, level string) (*Logger, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, func() {}, err
	}
	path := filepath.Join(dir, "quizhub.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, func() {}, err
	}
	mw := io.MultiWriter(os.Stdout, f)
	h := slog.NewTextHandler(mw, &slog.HandlerOptions{Level: parseLevel(level)})
	lg := slog.New(h)

	cleanup := func() {
		_ = f.Sync()
		_ = f.Close()
	}
	return lg, cleanup, nil
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
