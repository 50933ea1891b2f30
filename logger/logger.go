package logger

import (
	"log/slog"
	"sync"

	"github.com/mama165/sdk-go/logs"
)

var (
	mu      sync.RWMutex
	current = logs.GetLoggerFromString(defaultLevel)
)

// New builds a logger for a level name such as "DEBUG" or "INFO"
func New(level string) *slog.Logger {
	if level == "" {
		level = defaultLevel
	}
	return logs.GetLoggerFromString(level)
}

// SetDefault replaces the logger used by the package level helpers
func SetDefault(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

func Get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func HandleLog(msg string, args ...any) {
	Get().Info(msg, args...)
}
