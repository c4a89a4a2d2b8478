package domain

import "time"

// Outbox event types consumed by the external indexer.
const (
	EventResourceUpserted = "resource.upserted"
	EventResourceDeleted  = "resource.deleted"
)

// OutboxEvent is a pending index-update event written in the same transaction
// as the domain mutation it describes. Once PublishedAt is set it is never
// cleared; id order is the only ordering guarantee.
type OutboxEvent struct {
	ID            int64
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte // opaque JSON document
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// IndexEventPayload is the JSON body of a resource.upserted event. The
// ResourceID and CreatedAt fields are filled by the repository once the
// resource row exists.
type IndexEventPayload struct {
	JobID        string            `json:"job_id"`
	ResourceID   int64             `json:"resource_id"`
	ResourceType string            `json:"resource_type"`
	Domain       string            `json:"domain,omitempty"`
	Tags         []string          `json:"tags"`
	Status       string            `json:"status"`
	IsPinned     bool              `json:"is_pinned"`
	CreatedAt    string            `json:"created_at"`
	Link         map[string]string `json:"link,omitempty"`
	Document     map[string]string `json:"document,omitempty"`
}

// DeleteEventPayload is the JSON body of a resource.deleted event.
type DeleteEventPayload struct {
	ResourceID int64 `json:"resource_id"`
}
