// Package logutils builds the root zerolog logger from CLI flags.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Format selects the log encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// New returns a logger that writes to the specified file, or to stderr when
// file is empty. The file is opened in append mode so restarts keep history.
//
// The level parameter can be one of: debug, info, warn, error, fatal.
func New(level string, format Format, file string) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, closer, err
	}

	var writer io.Writer = os.Stderr
	if file != "" {
		logsDir := filepath.Dir(file)
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
		}

		osFile, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, closer, err
		}
		closer = func() { _ = osFile.Close() }
		writer = osFile
	}

	switch format {
	case FormatJSON, "":
	case FormatConsole:
		writer = zerolog.ConsoleWriter{Out: writer, NoColor: file != ""}
	default:
		closer()
		return zerolog.Logger{}, func() {}, fmt.Errorf("unknown log format %q", format)
	}

	l := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, closer, nil
}
