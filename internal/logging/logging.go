// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// Setup installs the global logger with the given level and format.
func Setup(levelStr, format string) error {
	var level zerolog.Level
	switch levelStr {
	case zerolog.LevelDebugValue:
		level = zerolog.DebugLevel
	case zerolog.LevelInfoValue:
		level = zerolog.InfoLevel
	case zerolog.LevelWarnValue:
		level = zerolog.WarnLevel
	default:
		return fmt.Errorf("unknown log level %q", levelStr)
	}

	var w io.Writer
	switch format {
	case FormatJSON:
		w = os.Stderr
	case FormatText:
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	log.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return nil
}
