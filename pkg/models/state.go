// Package models defines the JSON types exchanged between the br0wse daemon
// and its clients.
package models

import (
	"time"
)

// StoreSnapshot is the wire form of a store snapshot.
type StoreSnapshot struct {
	Name     string   `json:"name"`
	Records  []string `json:"records"`
	Revision uint64   `json:"revision"`
}

// Since returns the records appended after revision rev.
func (s StoreSnapshot) Since(rev uint64) []string {
	if rev >= uint64(len(s.Records)) {
		return nil
	}
	return s.Records[rev:]
}

// WorkerStats mirrors the discovery worker's counters.
type WorkerStats struct {
	Polls        uint64 `json:"polls"`
	PollFailures uint64 `json:"poll_failures"`
	Forwarded    uint64 `json:"forwarded"`
	Duplicates   uint64 `json:"duplicates"`
}

// SessionState is the full state of a running browse session.
type SessionState struct {
	SessionID   string                   `json:"session_id"`
	ServiceType string                   `json:"service_type"`
	StartedAt   time.Time                `json:"started_at"`
	Stores      map[string]StoreSnapshot `json:"stores"`
	Worker      WorkerStats              `json:"worker"`
}

// HealthResponse is returned by the daemon's /health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	PID       int    `json:"pid"`
	SessionID string `json:"session_id"`
	Uptime    string `json:"uptime"`
}

// StreamEventType identifies a server-sent event.
type StreamEventType string

const (
	EventInitial      StreamEventType = "initial"
	EventStore        StreamEventType = "store"
	EventConfigReload StreamEventType = "config_reload"
)

// StreamEvent is one event on the daemon's /api/stream endpoint.
type StreamEvent struct {
	Type  StreamEventType `json:"type"`
	State *SessionState   `json:"state,omitempty"` // Set for EventInitial
	Store *StoreSnapshot  `json:"store,omitempty"` // Set for EventStore
	New   []string        `json:"new,omitempty"`   // Records added since the previous event for this store
	File  string          `json:"file,omitempty"`  // Set for EventConfigReload
}

// RunningConfig is the configuration the daemon's session was started with.
// Exposed via /api/config so clients can verify what is active.
type RunningConfig struct {
	ServiceType  string        `json:"service_type"`
	Domain       string        `json:"domain"`
	PollTimeout  time.Duration `json:"poll_timeout"`
	Interface    string        `json:"interface,omitempty"`
	Dedupe       bool          `json:"dedupe"`
	TickInterval time.Duration `json:"tick_interval"`
	TickPrefix   string        `json:"tick_prefix"`
	TimerEnabled bool          `json:"timer_enabled"`
	ConfigFile   string        `json:"config_file,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
}
