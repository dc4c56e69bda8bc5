// Package collector provides the discovery side of a browse session: the
// Source abstraction over network service discovery and the Worker that
// polls it and forwards results over a bridge.
package collector

import (
	"context"
)

// Collector is a long-running background task of a session.
type Collector interface {
	// Name returns the task's name for logging.
	Name() string

	// Run blocks until the task finishes or ctx is canceled.
	Run(ctx context.Context) error
}
