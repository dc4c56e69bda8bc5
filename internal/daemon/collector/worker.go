package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/grovetools/br0wse/errors"
	"github.com/grovetools/br0wse/internal/daemon/bridge"
)

// DefaultPollTimeout bounds each discovery poll.
const DefaultPollTimeout = 500 * time.Millisecond

// WorkerConfig configures a discovery Worker.
type WorkerConfig struct {
	ServiceType string        // Descriptor such as "_http._tcp"
	PollTimeout time.Duration // Zero means DefaultPollTimeout
	Source      SourceOptions
	Dedupe      bool // Forward each (instance, host, port) only once
}

// Message carries one discovered service from the worker to the ingest task.
type Message struct {
	Description string
	Service     Service
	SeenAt      time.Time
}

// WorkerStats is a point-in-time copy of a worker's counters.
type WorkerStats struct {
	Polls        uint64 `json:"polls"`
	PollFailures uint64 `json:"poll_failures"`
	Forwarded    uint64 `json:"forwarded"`
	Duplicates   uint64 `json:"duplicates"`
}

// Worker polls a discovery Source on its own goroutine and forwards every
// distinct result over a bridge. It stops when the bridge's receiver is
// dropped or its context is canceled.
type Worker struct {
	serviceType ServiceType
	pollTimeout time.Duration
	dedupe      bool
	src         Source
	out         *bridge.Sender[Message]
	logger      *logrus.Entry
	tracer      trace.Tracer
	closeOnce   sync.Once

	// seen is owned by the Run goroutine.
	seen map[string]struct{}

	polls      atomic.Uint64
	failures   atomic.Uint64
	forwarded  atomic.Uint64
	duplicates atomic.Uint64
}

// NewWorker validates the service type, opens the source and creates the
// bridge the worker sends on. If the service type is invalid the opener is
// never called and no bridge is created. A nil open uses OpenMDNS.
func NewWorker(cfg WorkerConfig, open Opener, logger *logrus.Entry) (*Worker, *bridge.Receiver[Message], error) {
	st, err := ParseServiceType(cfg.ServiceType)
	if err != nil {
		return nil, nil, err
	}

	if open == nil {
		open = OpenMDNS
	}
	src, err := open(st, cfg.Source)
	if err != nil {
		return nil, nil, errors.SourceUnavailable(st.String(), err)
	}

	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	tx, rx := bridge.New[Message]()
	w := &Worker{
		serviceType: st,
		pollTimeout: cfg.PollTimeout,
		dedupe:      cfg.Dedupe,
		src:         src,
		out:         tx,
		logger:      logger.WithField("service_type", st.String()),
		tracer:      otel.Tracer("github.com/grovetools/br0wse/collector"),
		seen:        make(map[string]struct{}),
	}
	return w, rx, nil
}

// Name returns the worker's name.
func (w *Worker) Name() string { return "discovery" }

// ServiceType returns the parsed service type the worker browses.
func (w *Worker) ServiceType() ServiceType { return w.serviceType }

// Close closes the bridge sender and releases the source. Run calls it on
// exit; a worker that never ran must be closed by its owner. Close is
// idempotent.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		w.out.Close()
		if err := w.src.Close(); err != nil {
			w.logger.WithError(err).Warn("Failed to close discovery source")
		}
	})
}

// Run polls until the receiver is dropped or ctx is canceled. Both are normal
// terminations and return nil. On exit the bridge is closed so the consumer
// sees end-of-stream, and the source is released.
func (w *Worker) Run(ctx context.Context) error {
	defer w.Close()

	w.logger.WithField("poll_timeout", w.pollTimeout).Info("Starting discovery worker")

	for {
		if ctx.Err() != nil {
			w.logger.Debug("Context canceled, stopping discovery worker")
			return nil
		}
		if w.out.ReceiverGone() {
			w.logger.Info("Receiver dropped, stopping discovery worker")
			return nil
		}

		start := time.Now()
		services, err := w.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.failures.Add(1)
			w.logger.WithError(errors.PollFailed(w.serviceType.String(), err)).Debug("Discovery poll failed")
		} else if !w.forward(services) {
			w.logger.Info("Receiver dropped, stopping discovery worker")
			return nil
		}

		if !w.wait(ctx, w.pollTimeout-time.Since(start)) {
			return nil
		}
	}
}

func (w *Worker) poll(ctx context.Context) ([]Service, error) {
	ctx, span := w.tracer.Start(ctx, "discovery.poll",
		trace.WithAttributes(attribute.String("service_type", w.serviceType.String())))
	defer span.End()

	w.polls.Add(1)
	services, err := w.src.Poll(ctx, w.pollTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", len(services)))
	return services, nil
}

// forward sends services in source order. It returns false once a send fails.
func (w *Worker) forward(services []Service) bool {
	for _, svc := range services {
		key := svc.Key()
		if w.dedupe {
			if _, ok := w.seen[key]; ok {
				w.duplicates.Add(1)
				continue
			}
		}

		msg := Message{
			Description: svc.Describe(),
			Service:     svc,
			SeenAt:      time.Now(),
		}
		if err := w.out.Send(msg); err != nil {
			return false
		}
		if w.dedupe {
			w.seen[key] = struct{}{}
		}
		w.forwarded.Add(1)
		w.logger.WithField("service", msg.Description).Debug("Forwarded discovered service")
	}
	return true
}

// wait sleeps for d, returning early when the receiver goes away. It returns
// false if ctx was canceled.
func (w *Worker) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-w.out.Done():
		return true
	case <-ctx.Done():
		return false
	}
}

// Stats returns the worker's counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Polls:        w.polls.Load(),
		PollFailures: w.failures.Load(),
		Forwarded:    w.forwarded.Load(),
		Duplicates:   w.duplicates.Load(),
	}
}
