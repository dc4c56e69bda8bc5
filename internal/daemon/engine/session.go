package engine

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/br0wse/errors"
	"github.com/grovetools/br0wse/internal/daemon/bridge"
	"github.com/grovetools/br0wse/internal/daemon/collector"
	"github.com/grovetools/br0wse/internal/daemon/refresh"
	"github.com/grovetools/br0wse/internal/daemon/store"
	"github.com/grovetools/br0wse/pkg/models"
)

// Store names.
const (
	DiscoveredStore = "discovered"
	TicksStore      = "ticks"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	Worker       collector.WorkerConfig
	Timer        TimerConfig
	DisableTimer bool
}

// Session is one browse session: a discovery worker and its bridge, the
// ingest task feeding the discovered store, and the timer feeding the ticks
// store. Sessions share nothing with each other.
type Session struct {
	ID        string
	StartedAt time.Time

	discovered *store.Store
	ticks      *store.Store
	worker     *collector.Worker
	rx         *bridge.Receiver[collector.Message]
	timer      *Timer
	tasks      []collector.Collector
	logger     *logrus.Entry

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	closed  bool
}

// NewSession creates the worker and wires the session's tasks. Worker
// construction errors are returned unchanged and nothing is started.
func NewSession(cfg SessionConfig, open collector.Opener, n refresh.Notifier, logger *logrus.Entry) (*Session, error) {
	if n == nil {
		n = refresh.Discard
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	id := uuid.NewString()
	logger = logger.WithField("session", id)

	w, rx, err := collector.NewWorker(cfg.Worker, open, logger.WithField("task", "discovery"))
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         id,
		StartedAt:  time.Now(),
		discovered: store.New(DiscoveredStore),
		ticks:      store.New(TicksStore),
		worker:     w,
		rx:         rx,
		logger:     logger,
	}

	dw, err := s.discovered.Claim("ingest")
	if err != nil {
		rx.Close()
		return nil, err
	}
	s.Register(w)
	s.Register(&ingestTask{
		in:       rx,
		writer:   dw,
		notifier: n,
		logger:   logger.WithField("task", "ingest"),
	})

	if !cfg.DisableTimer {
		tw, err := s.ticks.Claim("timer")
		if err != nil {
			rx.Close()
			return nil, err
		}
		s.timer = NewTimer(cfg.Timer, tw, n, logger.WithField("task", "timer"))
		s.Register(s.timer)
	}

	return s, nil
}

// Register adds a task to run alongside the session's own tasks.
func (s *Session) Register(c collector.Collector) {
	s.tasks = append(s.tasks, c)
}

// Discovered returns the store fed by discovery.
func (s *Session) Discovered() *store.Store { return s.discovered }

// Ticks returns the store fed by the timer.
func (s *Session) Ticks() *store.Store { return s.ticks }

// Worker returns the session's discovery worker.
func (s *Session) Worker() *collector.Worker { return s.worker }

// Timer returns the session's timer, or nil if it is disabled.
func (s *Session) Timer() *Timer { return s.timer }

// Store returns the named store, or nil.
func (s *Session) Store(name string) *store.Store {
	switch name {
	case DiscoveredStore:
		return s.discovered
	case TicksStore:
		return s.ticks
	}
	return nil
}

// Run starts every task on its own goroutine and blocks until all of them
// have returned. Cancellation is not an error, and running a session that
// was already closed returns nil immediately.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		// Closed before it started: nothing to run.
		s.mu.Unlock()
		return nil
	}
	if s.running {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeInternal, "session already started")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	defer s.cancel()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)

	for _, c := range s.tasks {
		wg.Add(1)
		go func(task collector.Collector) {
			defer wg.Done()
			log := s.logger.WithField("task", task.Name())
			log.Info("Starting task")
			err := task.Run(ctx)
			if err != nil && !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, context.DeadlineExceeded) {
				log.WithError(err).Error("Task failed")
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				return
			}
			log.Debug("Task stopped")
		}(c)
	}

	wg.Wait()
	return firstErr
}

// Close drops the bridge receiver, which stops the worker within one poll
// interval, and stops the remaining tasks. A session closed before Run
// releases its discovery source directly.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.rx.Close()
	if !s.running {
		// The worker never ran, so nothing else releases its source.
		s.worker.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// State returns the session's current state in wire form.
func (s *Session) State() models.SessionState {
	stats := s.worker.Stats()
	return models.SessionState{
		SessionID:   s.ID,
		ServiceType: s.worker.ServiceType().String(),
		StartedAt:   s.StartedAt,
		Stores: map[string]models.StoreSnapshot{
			DiscoveredStore: ToModel(s.discovered.Snapshot()),
			TicksStore:      ToModel(s.ticks.Snapshot()),
		},
		Worker: models.WorkerStats{
			Polls:        stats.Polls,
			PollFailures: stats.PollFailures,
			Forwarded:    stats.Forwarded,
			Duplicates:   stats.Duplicates,
		},
	}
}

// ToModel converts a store snapshot to its wire form.
func ToModel(snap store.Snapshot) models.StoreSnapshot {
	return models.StoreSnapshot{
		Name:     snap.Name,
		Records:  snap.Strings(),
		Revision: snap.Revision,
	}
}
