// Package paths provides XDG-compliant path resolution for br0wse.
//
// Resolution order:
// 1. BR0WSE_HOME (portable root) → $BR0WSE_HOME/{config,state,run}
// 2. XDG env vars → $XDG_*_HOME/br0wse
// 3. Platform defaults → ~/.config/br0wse, ~/.local/state/br0wse
package paths

import (
	"os"
	"path/filepath"
)

const appName = "br0wse"

func getConfigHome() string {
	if home := os.Getenv("BR0WSE_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", appName)
	}
	return ""
}

func getStateHome() string {
	if home := os.Getenv("BR0WSE_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return filepath.Join(xdgStateHome, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state", appName)
	}
	return ""
}

// ConfigDir returns the br0wse configuration directory.
func ConfigDir() string { return getConfigHome() }

// StateDir returns the br0wse state directory.
// Used for the pid file and logs.
func StateDir() string { return getStateHome() }

// RuntimeDir returns the directory for the daemon socket.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if home := os.Getenv("BR0WSE_HOME"); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// LogDir returns the directory for log files.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// SocketPath returns the path to the daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "br0wsed.sock")
}

// PidFilePath returns the path to the daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "br0wsed.pid")
}

// DaemonLogPath returns the path the daemon logs to.
func DaemonLogPath() string {
	return filepath.Join(LogDir(), "br0wsed.log")
}

// EnsureDirs creates all br0wse directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), RuntimeDir(), LogDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
