// Package ingest registers resources and tracks their indexing jobs. A create
// is one transaction: resource row, type row, tags, queued job, and the
// outbox event the indexer will eventually consume.
package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/collecta-cloud/collecta/internal/domain"
)

// Recent-list bounds.
const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// Service handles resource registration and ingest tracking.
type Service struct {
	resources ResourceWriter
	jobs      JobStore
	logger    *zap.Logger
}

// New creates an ingest service.
func New(resources ResourceWriter, jobs JobStore, logger *zap.Logger) *Service {
	return &Service{resources: resources, jobs: jobs, logger: logger}
}

// CreateLink validates and registers a link resource. The link's domain is
// derived from the URL host. Returns the new resource id.
func (s *Service) CreateLink(ctx context.Context, link domain.NewLink) (int64, error) {
	link.URL = strings.TrimSpace(link.URL)
	if link.URL == "" {
		return 0, fmt.Errorf("url is required: %w", domain.ErrInvalidInput)
	}
	parsed, err := url.Parse(link.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return 0, fmt.Errorf("invalid url %q: %w", link.URL, domain.ErrInvalidInput)
	}
	if link.Title == "" {
		link.Title = link.URL
	}
	if err := normalizeStatus(&link.Status); err != nil {
		return 0, err
	}
	link.Tags = cleanTags(link.Tags)

	linkDomain := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	payload := domain.IndexEventPayload{
		JobID:        uuid.NewString(),
		ResourceType: domain.ResourceTypeLink,
		Domain:       linkDomain,
		Tags:         link.Tags,
		Status:       link.Status,
		IsPinned:     link.IsPinned,
		Link:         map[string]string{"url": link.URL},
	}

	id, err := s.resources.CreateLink(ctx, link, linkDomain, payload)
	if err != nil {
		return 0, fmt.Errorf("create link: %w", err)
	}
	s.logger.Info("Link registered",
		zap.Int64("resource_id", id),
		zap.String("domain", linkDomain),
	)
	return id, nil
}

// CreateDocument validates and registers a document resource. The file bytes
// are already stored; this records their metadata and queues indexing.
func (s *Service) CreateDocument(ctx context.Context, doc domain.NewDocument) (int64, error) {
	if doc.FilePath == "" {
		return 0, fmt.Errorf("file path is required: %w", domain.ErrInvalidInput)
	}
	if doc.Title == "" {
		if doc.FileName != "" {
			doc.Title = doc.FileName
		} else {
			doc.Title = doc.FilePath
		}
	}
	if err := normalizeStatus(&doc.Status); err != nil {
		return 0, err
	}
	doc.Tags = cleanTags(doc.Tags)

	payload := domain.IndexEventPayload{
		JobID:        uuid.NewString(),
		ResourceType: domain.ResourceTypeDocument,
		Tags:         doc.Tags,
		Status:       doc.Status,
		IsPinned:     doc.IsPinned,
		Document: map[string]string{
			"file_path": doc.FilePath,
			"mime_type": doc.MimeType,
		},
	}

	id, err := s.resources.CreateDocument(ctx, doc, payload)
	if err != nil {
		return 0, fmt.Errorf("create document: %w", err)
	}
	s.logger.Info("Document registered",
		zap.Int64("resource_id", id),
		zap.String("mime_type", doc.MimeType),
	)
	return id, nil
}

// Delete removes a resource and queues the index removal.
func (s *Service) Delete(ctx context.Context, resourceID int64) error {
	if resourceID <= 0 {
		return fmt.Errorf("resource id must be positive: %w", domain.ErrInvalidInput)
	}
	if err := s.resources.Delete(ctx, resourceID); err != nil {
		return err
	}
	s.logger.Info("Resource deleted", zap.Int64("resource_id", resourceID))
	return nil
}

// GetStatus returns the ingest job for one resource.
func (s *Service) GetStatus(ctx context.Context, resourceID int64) (domain.IngestJob, error) {
	return s.jobs.FindByResourceID(ctx, resourceID)
}

// ListRecent returns the most recently updated jobs. Limit is clamped to
// [1, 100], defaulting to 20 when non-positive.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.IngestJob, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.jobs.ListRecent(ctx, limit)
}

// UpdateStatus records a worker status callback.
func (s *Service) UpdateStatus(ctx context.Context, resourceID int64, status string, errorMessage *string) error {
	switch status {
	case domain.IngestQueued, domain.IngestProcessing, domain.IngestDone, domain.IngestFailed:
	default:
		return fmt.Errorf("unsupported ingest status %q: %w", status, domain.ErrInvalidInput)
	}
	return s.jobs.UpdateStatus(ctx, resourceID, status, errorMessage)
}

// UpdateProgress records a worker progress callback.
func (s *Service) UpdateProgress(ctx context.Context, resourceID int64, stage string, totalUnits, processedUnits *int) error {
	switch stage {
	case domain.StageExtracting, domain.StageEmbedding, domain.StageIndexing, domain.StageDone:
	default:
		return fmt.Errorf("unsupported ingest stage %q: %w", stage, domain.ErrInvalidInput)
	}
	return s.jobs.UpdateProgress(ctx, resourceID, stage, totalUnits, processedUnits)
}

func normalizeStatus(status *string) error {
	if *status == "" {
		*status = domain.StatusTodo
		return nil
	}
	switch *status {
	case domain.StatusTodo, domain.StatusInProgress, domain.StatusDone:
		return nil
	default:
		return fmt.Errorf("unsupported status %q: %w", *status, domain.ErrInvalidInput)
	}
}

// cleanTags trims, drops empties, and de-duplicates while keeping order.
func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
