package log

import (
	"os"
	"path/filepath"
)

const systemLogDir = "/var/log/doorbell"

// getDefaultDir prefers the system log directory when the daemon runs as
// the service user, falling back to an XDG path for unprivileged runs.
func getDefaultDir() (string, error) {
	if fi, err := os.Stat(systemLogDir); err == nil && fi.IsDir() {
		return systemLogDir, nil
	}

	xdgState := os.Getenv("XDG_STATE_HOME")
	if xdgState == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		xdgState = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(xdgState, "doorbell", "logs"), nil
}
