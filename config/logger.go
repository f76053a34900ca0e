package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger. It is constructed once
// in main and injected; packages never log through a global.
func NewLogger(service string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	logger := slog.New(handler)
	if host, err := os.Hostname(); err == nil {
		logger = logger.With("host", host)
	}
	return logger.With("service", service)
}
