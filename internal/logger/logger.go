package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger for a binary.
func Setup(minimumLogLevel, serviceName string) {
	SetupWriter(os.Stderr, minimumLogLevel, serviceName)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, minimumLogLevel, serviceName string) {
	zerolog.SetGlobalLevel(ParseLevel(minimumLogLevel))
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Identify application with logger property
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger()
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
