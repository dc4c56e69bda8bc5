// Package engine runs the tasks of a browse session: the discovery worker,
// the ingest task that moves discovered services into a store, and the timer
// task that feeds a second store.
package engine

import (
	"context"
	stderrors "errors"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/grovetools/br0wse/internal/daemon/bridge"
	"github.com/grovetools/br0wse/internal/daemon/collector"
	"github.com/grovetools/br0wse/internal/daemon/refresh"
	"github.com/grovetools/br0wse/internal/daemon/store"
)

// Ingest receives discovery messages and appends each description to the
// writer's store, marking the store dirty after every append. It returns nil
// once the bridge reports end-of-stream and ctx.Err() if ctx is canceled first.
func Ingest(ctx context.Context, in *bridge.Receiver[collector.Message], w *store.Writer, n refresh.Notifier, logger *logrus.Entry) error {
	if n == nil {
		n = refresh.Discard
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	tracer := otel.Tracer("github.com/grovetools/br0wse/engine")
	name := w.Store().Name()

	for {
		msg, err := in.Recv(ctx)
		if err != nil {
			if stderrors.Is(err, bridge.ErrEndOfStream) {
				logger.WithField("store", name).Debug("Bridge closed, ingest finished")
				return nil
			}
			return err
		}

		_, span := tracer.Start(ctx, "ingest.append")
		rev := w.Append(store.Record(msg.Description))
		span.SetAttributes(
			attribute.String("store", name),
			attribute.Int64("revision", int64(rev)),
		)
		span.End()

		logger.WithFields(logrus.Fields{
			"store":    name,
			"revision": rev,
		}).Debug("Appended discovered service")
		n.MarkDirty(name)
	}
}

// ingestTask adapts Ingest to the collector.Collector interface.
type ingestTask struct {
	in       *bridge.Receiver[collector.Message]
	writer   *store.Writer
	notifier refresh.Notifier
	logger   *logrus.Entry
}

func (t *ingestTask) Name() string { return "ingest" }

func (t *ingestTask) Run(ctx context.Context) error {
	return Ingest(ctx, t.in, t.writer, t.notifier, t.logger)
}
