package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the logger described by the logging flags. The returned func releases the
// system log connection, if one was opened.
func newLogger(out io.Writer) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	if noError {
		level = zerolog.ErrorLevel
	}

	var w io.Writer
	switch logFormat {
	case "console":
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
		w = out
	default:
		return zerolog.Nop(), func() {}, fmt.Errorf("invalid log format %q: must be console or json", logFormat)
	}

	closeLog := func() {}
	if useSyslog {
		sw, closeSyslog, err := newSyslogWriter()
		if err != nil {
			return zerolog.Nop(), func() {}, err
		}
		w = zerolog.MultiLevelWriter(w, sw)
		closeLog = closeSyslog
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, closeLog, nil
}
