package outbox

import (
	"context"

	"github.com/collecta-cloud/collecta/internal/domain"
)

// Store leases pending events and records successful publishes.
type Store interface {
	ClaimPending(ctx context.Context, batchSize int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64) error
}

// Stream is the downstream event channel the indexer consumes.
type Stream interface {
	AppendEvent(ctx context.Context, streamKey string, eventID int64, eventType string, payload []byte) error
}
