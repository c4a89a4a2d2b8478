package ingest

import (
	"context"

	"github.com/collecta-cloud/collecta/internal/domain"
)

// ResourceWriter is the transactional write side of the metadata store.
type ResourceWriter interface {
	CreateLink(ctx context.Context, link domain.NewLink, linkDomain string, payload domain.IndexEventPayload) (int64, error)
	CreateDocument(ctx context.Context, doc domain.NewDocument, payload domain.IndexEventPayload) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// JobStore reads and updates ingest jobs.
type JobStore interface {
	FindByResourceID(ctx context.Context, resourceID int64) (domain.IngestJob, error)
	ListRecent(ctx context.Context, limit int) ([]domain.IngestJob, error)
	UpdateStatus(ctx context.Context, resourceID int64, status string, errorMessage *string) error
	UpdateProgress(ctx context.Context, resourceID int64, stage string, totalUnits, processedUnits *int) error
}
