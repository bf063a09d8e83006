// Package shutdown wires process termination signals. The daemon is
// Linux-only (it talks to ALSA), so no platform split is needed.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
