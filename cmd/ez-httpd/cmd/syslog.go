//go:build !windows && !plan9

package cmd

import (
	"fmt"
	"io"
	"log/syslog"

	"github.com/rs/zerolog"
)

func newSyslogWriter() (io.Writer, func(), error) {
	sw, err := syslog.New(syslog.LOG_LOCAL0|syslog.LOG_INFO, "ez-httpd")
	if err != nil {
		return nil, nil, fmt.Errorf("syslog: %w", err)
	}
	return zerolog.SyslogLevelWriter(sw), func() { sw.Close() }, nil
}
