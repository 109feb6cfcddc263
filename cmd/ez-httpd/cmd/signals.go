//go:build !windows && !plan9

package cmd

import (
	"os"
	"syscall"
)

// exitSignals stop the server.
var exitSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
	syscall.SIGQUIT,
	syscall.SIGUSR1,
	syscall.SIGUSR2,
}
