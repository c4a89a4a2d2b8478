// Package outbox persists index-update events in the same database (and
// transaction) as the domain writes they describe, and hands batches of
// unpublished events to the publisher under a non-blocking row lease.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/collecta-cloud/collecta/internal/domain"
	"github.com/collecta-cloud/collecta/internal/repository/relational"
)

// Repo implements the outbox storage contract.
type Repo struct {
	db       *sql.DB
	leaseTTL time.Duration
}

// New creates an outbox repository. leaseTTL is how long a claim shields rows
// from concurrent claimers; rows whose claimer crashed re-enter rotation once
// the lease expires.
func New(store *relational.Store, leaseTTL time.Duration) *Repo {
	return &Repo{db: store.DB(), leaseTTL: leaseTTL}
}

// ClaimPending leases up to batchSize unpublished events, lowest id first.
// The claim is a single atomic UPDATE: rows already leased by a concurrent
// claimer are skipped, never waited on, so two claimers can never hold the
// same row. Returned events are ordered by ascending id.
func (r *Repo) ClaimPending(ctx context.Context, batchSize int) ([]domain.OutboxEvent, error) {
	token := uuid.NewString()
	now := time.Now().UTC()
	cutoff := now.Add(-r.leaseTTL).Format(relational.TimeFormat)

	rows, err := r.db.QueryContext(ctx, `
		UPDATE outbox_events
		SET claim_token = ?, claimed_at = ?
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE published_at IS NULL
			  AND (claim_token IS NULL OR claimed_at <= ?)
			ORDER BY id
			LIMIT ?
		)
		RETURNING id, aggregate_type, aggregate_id, event_type, payload, created_at`,
		token, now.Format(relational.TimeFormat), cutoff, batchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("claim pending: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var (
			e         domain.OutboxEvent
			payload   string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan claimed event: %w", err)
		}
		e.Payload = []byte(payload)
		if e.CreatedAt, err = relational.ParseTime(createdAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim pending: %w", err)
	}

	// RETURNING does not guarantee row order.
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	return events, nil
}

// MarkPublished stamps published_at on one event and releases its lease.
// Publishing is monotonic: an already-published row is left untouched.
func (r *Repo) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET published_at = ?, claim_token = NULL, claimed_at = NULL
		WHERE id = ? AND published_at IS NULL`,
		relational.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("mark published %d: %w", id, err)
	}
	return nil
}

// EnqueueTx inserts an event inside the caller's transaction so the event
// commits (or rolls back) together with the domain write it describes.
func EnqueueTx(ctx context.Context, tx *sql.Tx, aggregateType, aggregateID, eventType string, payload []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		aggregateType, aggregateID, eventType, string(payload), relational.Now(),
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}
