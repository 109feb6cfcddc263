//go:build windows || plan9

package cmd

import (
	"errors"
	"io"
)

func newSyslogWriter() (io.Writer, func(), error) {
	return nil, nil, errors.New("syslog: not available on this platform")
}
