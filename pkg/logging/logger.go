// Package logging configures zerolog for the faceted-navigation engine.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Component names used as the "component" field on engine loggers.
const (
	ComponentCache     = "fragment-cache"
	ComponentFetcher   = "fetcher"
	ComponentReconcile = "reconciler"
	ComponentHistory   = "history"
	ComponentEngine    = "render-engine"
	ComponentForm      = "filter-form"
	ComponentWidgets   = "grid-widgets"
	ComponentPrefetch  = "prefetch"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel `yaml:"level"`

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool `yaml:"pretty"`

	// Output defaults to os.Stderr.
	Output io.Writer `yaml:"-"`
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a LogLevel to a zerolog.Level, falling back to info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: cache hits and misses, region patch details, ignored state
// machine events, focus restoration.
//
// Info: render cycles started and settled, history commits, popstate replays.
//
// Warn: failed fragment fetches, regions skipped because a node was
// missing, cache backend errors.
//
// Error: configuration problems in cmd/facet-render.
//
// Context Fields:
//   - url: fragment fetch URL
//   - section: section id
//   - query: canonical query string
//   - region: reconciliation region name
//   - facet: facet element id
//   - state / event: filter form state machine fields
//   - error_class: network, client, server
