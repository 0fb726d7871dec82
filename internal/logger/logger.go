package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service-wide logger: JSON to stdout, console format when
// LOG_FORMAT=console, level from LOG_LEVEL (default info).
func New(service string) zerolog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	var out = zerolog.New(os.Stdout)
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return out.Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
