// Package outbox drains the transactional outbox: it leases batches of
// unpublished events and relays each one to the downstream stream, marking it
// published only after the append succeeds. Delivery is at-least-once; the
// indexer de-duplicates by resource id.
package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/collecta-cloud/collecta/internal/metrics"
)

// Publisher polls the outbox and relays events to the stream.
type Publisher struct {
	store     Store
	stream    Stream
	logger    *zap.Logger
	streamKey string

	batchSize    int
	pollInterval time.Duration
}

// New creates a publisher.
func New(
	store Store, stream Stream, logger *zap.Logger,
	streamKey string, batchSize int, pollInterval time.Duration,
) *Publisher {
	if batchSize <= 0 {
		batchSize = 100
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Publisher{
		store:        store,
		stream:       stream,
		logger:       logger,
		streamKey:    streamKey,
		batchSize:    batchSize,
		pollInterval: pollInterval,
	}
}

// Run polls until the context is canceled. Cycles never overlap: the next
// tick waits for the previous cycle to finish.
func (p *Publisher) Run(ctx context.Context) {
	p.logger.Info("Outbox publisher started",
		zap.String("stream", p.streamKey),
		zap.Int("batch_size", p.batchSize),
		zap.Duration("poll_interval", p.pollInterval),
	)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox publisher stopped")
			return
		case <-ticker.C:
			// Bound the cycle so a stuck append cannot stall the loop past
			// the next lease expiry.
			cycleCtx, cancel := context.WithTimeout(ctx, p.pollInterval*10)
			p.PublishPending(cycleCtx)
			cancel()
		}
	}
}

// PublishPending runs one publish cycle: claim a batch, then for each event
// append to the stream and mark it published. An append failure leaves the
// event unpublished for a later cycle; a mark failure after a successful
// append means the event will be delivered again, which consumers tolerate.
// Returns the number of events published.
func (p *Publisher) PublishPending(ctx context.Context) int {
	start := time.Now()
	defer func() {
		metrics.OutboxCycleDuration.Observe(time.Since(start).Seconds())
	}()

	events, err := p.store.ClaimPending(ctx, p.batchSize)
	if err != nil {
		metrics.OutboxErrorsTotal.WithLabelValues("claim").Inc()
		p.logger.Error("Outbox claim failed", zap.Error(err))
		return 0
	}
	if len(events) == 0 {
		return 0
	}

	published := 0
	for _, e := range events {
		if err := p.stream.AppendEvent(ctx, p.streamKey, e.ID, e.EventType, e.Payload); err != nil {
			metrics.OutboxErrorsTotal.WithLabelValues("append").Inc()
			p.logger.Error("Outbox append failed",
				zap.Int64("event_id", e.ID),
				zap.String("event_type", e.EventType),
				zap.Error(err),
			)
			continue
		}
		if err := p.store.MarkPublished(ctx, e.ID); err != nil {
			metrics.OutboxErrorsTotal.WithLabelValues("mark").Inc()
			p.logger.Error("Outbox mark failed, event will be redelivered",
				zap.Int64("event_id", e.ID),
				zap.Error(err),
			)
			continue
		}
		metrics.OutboxPublishedTotal.Inc()
		published++
	}

	p.logger.Debug("Outbox cycle complete",
		zap.Int("claimed", len(events)),
		zap.Int("published", published),
	)
	return published
}
