// Package enginelog wires up structured logging for the dictionary engine:
// a JSON slog handler over a size-rotated file, optionally tee'd to stderr.
package enginelog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config controls where and how the engine logs.
type Config struct {
	Level         string // debug, info, warn, error
	FilePath      string // empty disables file logging
	MaxSizeMB     int
	MaxFiles      int
	WriteToStderr bool
}

// DefaultConfig returns the engine's default logging configuration, writing
// under the resources root's "logs" subdirectory.
func DefaultConfig(resourcesRoot string) Config {
	return Config{
		Level:         "info",
		FilePath:      filepath.Join(resourcesRoot, "logs", "engine.log"),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a *slog.Logger per cfg and returns a cleanup func that must
// be called (typically deferred) to flush and close the log file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if cfg.FilePath == "" {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.Level)}))
		return logger, func() {}, nil
	}

	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = writer
	if cfg.WriteToStderr {
		out = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	logger := slog.New(handler)

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return logger, cleanup, nil
}
