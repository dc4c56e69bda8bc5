package daemon

import (
	"net"
	"os"
	"time"

	"github.com/grovetools/br0wse/errors"
	"github.com/grovetools/br0wse/pkg/paths"
)

// Connect returns a Client for the daemon listening on socketPath, or on the
// default socket when socketPath is empty. It fails with DAEMON_NOT_RUNNING
// if nothing accepts connections there.
func Connect(socketPath string) (Client, error) {
	if socketPath == "" {
		socketPath = paths.SocketPath()
	}
	if _, err := os.Stat(socketPath); err != nil {
		return nil, errors.DaemonNotRunning(socketPath)
	}

	conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
	if err != nil {
		return nil, errors.DaemonNotRunning(socketPath)
	}
	conn.Close()

	return NewRemoteClient(socketPath), nil
}
