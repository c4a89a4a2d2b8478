package domain

import "time"

// Ingest job statuses.
const (
	IngestQueued     = "queued"
	IngestProcessing = "processing"
	IngestDone       = "done"
	IngestFailed     = "failed"
)

// Ingest stages reported by the worker while a job is processing.
const (
	StageExtracting = "extracting"
	StageEmbedding  = "embedding"
	StageIndexing   = "indexing"
	StageDone       = "done"
)

// IngestJob tracks the indexing pipeline for one resource (1:1).
// ProcessedUnits <= TotalUnits when both are set; the store does not enforce
// this, a violating caller is a bug upstream.
type IngestJob struct {
	ResourceID     int64
	ResourceType   string
	Title          string
	Status         string
	Stage          *string
	TotalUnits     *int
	ProcessedUnits *int
	ErrorMessage   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
