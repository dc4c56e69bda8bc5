// Package refresh carries "mark dirty" notifications from the tasks that
// mutate stores to whatever renders them.
package refresh

import (
	"sync"
)

// Kind defines what a signal is about.
type Kind string

const (
	KindDirty        Kind = "dirty"
	KindConfigReload Kind = "config_reload"
)

// Signal asks a subscriber to re-read state. Signals carry no data; the
// subscriber pulls fresh snapshots itself.
type Signal struct {
	Kind   Kind
	Source string // Which store or component changed (e.g., "discovered", "ticks")
	File   string // Config file that changed, for KindConfigReload
}

// Notifier is the refresh contract the store-owning tasks depend on.
// MarkDirty must be cheap, non-blocking and safe to call from any goroutine.
type Notifier interface {
	MarkDirty(source string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(source string)

// MarkDirty calls f(source).
func (f NotifierFunc) MarkDirty(source string) { f(source) }

// Discard is a Notifier that drops every signal.
var Discard Notifier = NotifierFunc(func(string) {})

// Hub fans refresh signals out to subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Signal]struct{}
	bufferSize  int
}

// NewHub creates a Hub whose subscriber channels hold up to bufferSize
// pending signals. Zero means 16.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		subscribers: make(map[chan Signal]struct{}),
		bufferSize:  bufferSize,
	}
}

// MarkDirty broadcasts a KindDirty signal for source.
func (h *Hub) MarkDirty(source string) {
	h.Broadcast(Signal{Kind: KindDirty, Source: source})
}

// Broadcast delivers s to every subscriber without blocking. A subscriber
// whose buffer is full already has a redraw pending and is skipped.
func (h *Hub) Broadcast(s Signal) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
}

// Subscribe creates a new subscription channel.
func (h *Hub) Subscribe() chan Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Signal, h.bufferSize)
	h.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(ch chan Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[ch]; !ok {
		return
	}
	delete(h.subscribers, ch)
	close(ch)
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
