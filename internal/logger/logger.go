package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New creates the process-wide JSON logger. Level defaults to info; set
// LOG_LEVEL=debug to include debug records.
func New() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", "leadmart"))
}
