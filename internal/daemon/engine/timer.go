package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/br0wse/internal/daemon/refresh"
	"github.com/grovetools/br0wse/internal/daemon/store"
)

const (
	// DefaultTickInterval is how often the timer appends a record.
	DefaultTickInterval = 2 * time.Second
	// DefaultTickPrefix prefixes synthetic records ("tick-1", "tick-2", ...).
	DefaultTickPrefix = "tick"
)

// TimerConfig configures a Timer.
type TimerConfig struct {
	Interval time.Duration
	Prefix   string
}

// Ticker is the subset of time.Ticker the timer needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Timer appends one synthetic record to its store per tick.
//
// Run for a duration D at interval I, it appends floor(D/I) records for the
// ticks strictly before D. A tick landing exactly at D races with
// cancellation and may or may not be appended.
type Timer struct {
	interval  time.Duration
	prefix    string
	writer    *store.Writer
	notifier  refresh.Notifier
	logger    *logrus.Entry
	newTicker TickerFunc
	count     uint64
}

// NewTimer creates a Timer that owns w. Zero config values take the defaults.
func NewTimer(cfg TimerConfig, w *store.Writer, n refresh.Notifier, logger *logrus.Entry) *Timer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTickInterval
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultTickPrefix
	}
	if n == nil {
		n = refresh.Discard
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Timer{
		interval:  cfg.Interval,
		prefix:    cfg.Prefix,
		writer:    w,
		notifier:  n,
		logger:    logger,
		newTicker: NewRealTicker,
	}
}

// WithTicker replaces the tick source.
func (t *Timer) WithTicker(f TickerFunc) *Timer {
	t.newTicker = f
	return t
}

// Name returns the task's name.
func (t *Timer) Name() string { return "timer" }

// Run appends a record per tick until ctx is canceled.
func (t *Timer) Run(ctx context.Context) error {
	tk := t.newTicker(t.interval)
	defer tk.Stop()

	name := t.writer.Store().Name()
	t.logger.WithField("interval", t.interval).Info("Starting timer")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C():
			// Prefer cancellation when both are ready.
			if ctx.Err() != nil {
				return nil
			}
			t.count++
			rev := t.writer.Append(store.Record(fmt.Sprintf("%s-%d", t.prefix, t.count)))
			t.logger.WithField("revision", rev).Trace("Tick")
			t.notifier.MarkDirty(name)
		}
	}
}
