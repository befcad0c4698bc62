package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup initialises the global slog default logger for a service. Every
// record carries the service name so aggregated logs from the api, the
// simulator, and the migrator stay distinguishable.
// level may be "debug", "info", "warn", or "error" (default "info");
// format may be "json" or "text" (default "json"). Debug level also
// turns on source locations.
func Setup(service, level, format string) {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler).With("service", service))
}

// ParseLevel maps a configured level string to a slog level. Unknown
// values fall back to info rather than failing startup.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Component returns a logger tagged with a component name, e.g.
// "planner" or "navigation".
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
