package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// NewLink describes a link resource to register.
type NewLink struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Memo     string   `json:"memo,omitempty"`
	Status   string   `json:"status,omitempty"`
	IsPinned bool     `json:"isPinned,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// NewDocument describes a document resource to register. The file itself must
// already be stored; only its metadata is sent.
type NewDocument struct {
	Title    string   `json:"title,omitempty"`
	Memo     string   `json:"memo,omitempty"`
	Status   string   `json:"status,omitempty"`
	IsPinned bool     `json:"isPinned,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	FilePath string   `json:"filePath"`
	FileName string   `json:"fileName,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	FileSize int64    `json:"fileSize,omitempty"`
	SHA256   string   `json:"sha256,omitempty"`
}

// IngestJob tracks the indexing pipeline for one resource.
type IngestJob struct {
	ResourceID     int64     `json:"resourceId"`
	ResourceType   string    `json:"resourceType"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	Stage          *string   `json:"stage"`
	TotalUnits     *int      `json:"totalUnits"`
	ProcessedUnits *int      `json:"processedUnits"`
	ErrorMessage   *string   `json:"errorMessage"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type createResponse struct {
	ResourceID int64 `json:"resourceId"`
}

// CreateLink registers a link resource and returns its id.
func (c *Client) CreateLink(ctx context.Context, link NewLink) (int64, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/api/ingest/links", nil, link, &resp); err != nil {
		return 0, err
	}
	return resp.ResourceID, nil
}

// CreateDocument registers a document resource and returns its id.
func (c *Client) CreateDocument(ctx context.Context, doc NewDocument) (int64, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/api/ingest/documents", nil, doc, &resp); err != nil {
		return 0, err
	}
	return resp.ResourceID, nil
}

// DeleteResource removes a resource and queues its index removal.
func (c *Client) DeleteResource(ctx context.Context, resourceID int64) error {
	path := fmt.Sprintf("/api/resources/%d", resourceID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// IngestStatus returns the ingest job for one resource.
func (c *Client) IngestStatus(ctx context.Context, resourceID int64) (IngestJob, error) {
	var job IngestJob
	path := fmt.Sprintf("/api/ingest/%d", resourceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &job); err != nil {
		return IngestJob{}, err
	}
	return job, nil
}

// RecentIngestJobs returns the most recently updated ingest jobs.
func (c *Client) RecentIngestJobs(ctx context.Context, limit int) ([]IngestJob, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Items []IngestJob `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ingest/recent", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

type updateStatusRequest struct {
	ResourceID   int64   `json:"resourceId"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"errorMessage,omitempty"`
}

// UpdateIngestStatus reports a worker status transition and returns the
// updated job.
func (c *Client) UpdateIngestStatus(ctx context.Context, resourceID int64, status string, errorMessage *string) (IngestJob, error) {
	var job IngestJob
	body := updateStatusRequest{ResourceID: resourceID, Status: status, ErrorMessage: errorMessage}
	if err := c.do(ctx, http.MethodPost, "/api/ingest/status", nil, body, &job); err != nil {
		return IngestJob{}, err
	}
	return job, nil
}

type updateProgressRequest struct {
	ResourceID     int64  `json:"resourceId"`
	Stage          string `json:"stage"`
	TotalUnits     *int   `json:"totalUnits,omitempty"`
	ProcessedUnits *int   `json:"processedUnits,omitempty"`
}

// UpdateIngestProgress reports worker stage progress and returns the updated job.
func (c *Client) UpdateIngestProgress(ctx context.Context, resourceID int64, stage string, totalUnits, processedUnits *int) (IngestJob, error) {
	var job IngestJob
	body := updateProgressRequest{
		ResourceID:     resourceID,
		Stage:          stage,
		TotalUnits:     totalUnits,
		ProcessedUnits: processedUnits,
	}
	if err := c.do(ctx, http.MethodPost, "/api/ingest/progress", nil, body, &job); err != nil {
		return IngestJob{}, err
	}
	return job, nil
}
