package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger from environment variables.
//
//	RETOUCH_LOG_LEVEL  debug, info, warn, error (default: info)
//	RETOUCH_LOG_FORMAT console or json (default: console)
//
// Logs always go to stderr; stdout is reserved for metrics and the MCP transport.
func Init() {
	InitWithWriter(os.Stderr)
}

// InitWithWriter is Init with an explicit destination, used by tests.
func InitWithWriter(w io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv("RETOUCH_LOG_LEVEL")))

	if strings.EqualFold(os.Getenv("RETOUCH_LOG_FORMAT"), "json") {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
