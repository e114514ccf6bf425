// Package platform holds process-level plumbing shared by the binaries:
// structured logging and environment-backed defaults.
package platform

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// InitLogger installs a JSON slog logger as the process default. The level
// comes from PARCELCOST_LOG_LEVEL (debug, info, warn, error).
func InitLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(GetEnv("PARCELCOST_LOG_LEVEL", "info")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LogFatal logs the error and exits.
func LogFatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

// GetEnv reads an env var with a default.
func GetEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// GetEnvInt reads an integer env var with a default.
func GetEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetEnvBool reads a boolean env var with a default.
func GetEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return strings.ToLower(val) == "true" || val == "1"
	}
	return defaultVal
}
