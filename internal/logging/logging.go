// Package logging provides application-wide logging configuration.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Formats accepted by Init.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Init initializes the global logger. Logs go to stderr so command output on
// stdout stays machine readable.
func Init(debug bool, format string) {
	InitWriter(os.Stderr, debug, format)
}

// InitWriter is Init with an explicit destination.
func InitWriter(out io.Writer, debug bool, format string) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if format == FormatJSON {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	})
}
