package app

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures zerolog output and the global level. level overrides
// LOGLEVEL when non-empty. dotenvLoaded is reported once logging is ready.
func SetupLogging(level string, dotenvLoaded bool) {
	setupLogging(os.Stderr, os.Getenv("ENV"), level, dotenvLoaded)
}

func setupLogging(out io.Writer, env, level string, dotenvLoaded bool) {
	production := env == "production"
	if production {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	if level == "" {
		level = os.Getenv("LOGLEVEL")
	}
	lvl, known := ParseLevel(level, production)
	zerolog.SetGlobalLevel(lvl)
	if !known {
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", level)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if dotenvLoaded {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// ParseLevel maps a level name to a zerolog level. An empty name defaults to
// warn in production and info elsewhere; an unknown name yields info and false.
func ParseLevel(name string, production bool) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "fatal":
		return zerolog.FatalLevel, true
	case "panic":
		return zerolog.PanicLevel, true
	case "disabled":
		return zerolog.Disabled, true
	case "":
		if production {
			return zerolog.WarnLevel, true
		}
		return zerolog.InfoLevel, true
	default:
		return zerolog.InfoLevel, false
	}
}

// WithRunID tags every subsequent global log event with the run identifier.
func WithRunID(runID string) {
	log.Logger = log.With().Str("run_id", runID).Logger()
}
