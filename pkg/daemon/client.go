// Package daemon provides a client for the br0wse daemon (br0wsed) socket API.
package daemon

import (
	"context"

	"github.com/grovetools/br0wse/pkg/models"
)

// Client defines the interface for interacting with the br0wse daemon.
type Client interface {
	// GetState returns the daemon session's full state.
	GetState(ctx context.Context) (*models.SessionState, error)

	// GetStore returns one store snapshot ("discovered" or "ticks").
	GetStore(ctx context.Context, name string) (*models.StoreSnapshot, error)

	// GetConfig returns the configuration the daemon is running with.
	GetConfig(ctx context.Context) (*models.RunningConfig, error)

	// StreamState subscribes to real-time updates from the daemon.
	// The channel is closed when ctx is canceled or the connection is lost.
	StreamState(ctx context.Context) (<-chan models.StreamEvent, error)

	// IsRunning returns true if the daemon is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}
