//go:build windows || plan9

package cmd

import "os"

var exitSignals = []os.Signal{os.Interrupt}
