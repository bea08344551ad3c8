package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Setup creates a configured zerolog logger and installs its level as
// the global default. This is an infrastructure component that provides
// logging functionality.
func Setup(level string) zerolog.Logger {
	return SetupWriter(level, os.Stderr)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(level string, w io.Writer) zerolog.Logger {
	var l zerolog.Level
	switch strings.ToLower(level) {
	case "trace":
		l = zerolog.TraceLevel
	case "debug":
		l = zerolog.DebugLevel
	case "info":
		l = zerolog.InfoLevel
	case "warn":
		l = zerolog.WarnLevel
	case "error":
		l = zerolog.ErrorLevel
	default:
		l = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(l)
	return zerolog.New(w).Level(l).With().Timestamp().Logger()
}

// Logger creates a default logger with info level.
func Logger() zerolog.Logger {
	return Setup("info")
}
