// Package logger wraps a process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.Nop()

// Init configures the global logger. verbose enables debug events (the
// per-tick status line and every publish). Under a service manager the
// timestamp is dropped because the journal adds its own.
func Init(w io.Writer, verbose, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	if isService {
		output.NoColor = true
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log = zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Set replaces the global logger. Used by tests to capture output.
func Set(l zerolog.Logger) {
	log = l
}

// IsService reports whether the process looks like it was started by systemd
// or another init system rather than from a terminal.
func IsService() bool {
	if os.Getenv("INVOCATION_ID") != "" || os.Getenv("SERVICE_NAME") != "" {
		return true
	}
	return os.Getppid() == 1
}

// Debug starts a debug event.
func Debug() *zerolog.Event { return log.Debug() }

// Info starts an info event.
func Info() *zerolog.Event { return log.Info() }

// Warn starts a warning event.
func Warn() *zerolog.Event { return log.Warn() }

// Error starts an error event.
func Error() *zerolog.Event { return log.Error() }

// Fatal starts a fatal event. Sending it exits the process with status 1.
func Fatal() *zerolog.Event { return log.Fatal() }
