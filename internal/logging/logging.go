package logging

import (
	"log/slog"
	"os"
)

// Init configures the default slog logger from the LOG_LEVEL environment
// variable. Production default is info.
func Init() {
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: levelFromEnv(),
		}),
	)
	slog.SetDefault(logger)
}

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
