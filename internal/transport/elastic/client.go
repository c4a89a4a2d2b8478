// Package elastic is the client for the chunk index, an
// Elasticsearch-compatible search service holding one document per indexed
// chunk with its text, embedding and resource attributes.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/collecta-cloud/collecta/internal/domain"
	"github.com/collecta-cloud/collecta/internal/domain/search/query"
	"github.com/collecta-cloud/collecta/internal/domain/search/result"
)

// Client talks to one index over the HTTP search API.
type Client struct {
	httpc   *http.Client
	baseURL string
	index   string
	logger  *zap.Logger
}

// Config holds the index client settings.
type Config struct {
	BaseURL string
	Index   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates an index client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		index:   cfg.Index,
		logger:  cfg.Logger,
	}
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	Score     *float64            `json:"_score"`
	Source    chunkSource         `json:"_source"`
	Highlight map[string][]string `json:"highlight"`
}

type chunkSource struct {
	ResourceID   int64    `json:"resource_id"`
	ResourceType string   `json:"resource_type"`
	Domain       string   `json:"domain"`
	Tags         []string `json:"tags"`
	PageIndex    *int     `json:"page_index"`
	IsPinned     *bool    `json:"is_pinned"`
	CreatedAt    string   `json:"created_at"`
	ChunkText    string   `json:"chunk_text"`
}

// SearchChunks runs one candidate-window query and returns the chunk hits in
// index order (score-descending).
func (c *Client) SearchChunks(ctx context.Context, q query.Query) ([]result.Hit, error) {
	reqBody, err := json.Marshal(buildSearchBody(q))
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", c.baseURL, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index search: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Index search failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return nil, fmt.Errorf("index search status %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	hits := make([]result.Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		if h.Source.ResourceID == 0 {
			continue
		}
		var score float64
		if h.Score != nil {
			score = *h.Score
		}
		hits = append(hits, result.Hit{
			ResourceID:   h.Source.ResourceID,
			ResourceType: h.Source.ResourceType,
			Domain:       h.Source.Domain,
			Tags:         h.Source.Tags,
			PageIndex:    h.Source.PageIndex,
			Score:        score,
			Snippet:      result.Snippet(h.Highlight["chunk_text"], h.Source.ChunkText),
			IsPinned:     h.Source.IsPinned,
			CreatedAt:    h.Source.CreatedAt,
		})
	}
	return hits, nil
}

// Ping checks index availability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("index ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("index ping status %d", resp.StatusCode)
	}
	return nil
}
