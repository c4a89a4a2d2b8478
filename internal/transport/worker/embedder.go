// Package worker is the client for the ingest worker's embedding endpoint.
// The wire protocol is bespoke: POST /embed {"texts": [...], "model", "dim"}
// returning {"embeddings": [[...]], "model", "dim"}.
package worker

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
	"github.com/collecta-cloud/collecta/internal/metrics"
)

const providerName = "worker"

// Embedder calls the worker's /embed endpoint.
type Embedder struct {
	httpc   *http.Client
	baseURL string
	model   string
	dim     int
	logger  *zap.Logger
}

// Config holds the worker embedding settings.
type Config struct {
	BaseURL string
	Model   string
	Dim     int
	Timeout time.Duration
	Logger  *zap.Logger
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
	Dim   int      `json:"dim"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
	Dim        int         `json:"dim"`
}

// NewEmbedder creates a worker embedding client.
func NewEmbedder(cfg *Config) *Embedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Embedder{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		dim:     cfg.Dim,
		logger:  cfg.Logger,
	}
}

// Embed implements domain.Embedder. A non-2xx response or an empty embedding
// list is a hard provider error; callers do not fall back.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	body, err := json.Marshal(embedRequest{Texts: []string{text}, Model: e.model, Dim: e.dim})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.httpc.Do(req)
	duration := time.Since(start)

	if err != nil {
		e.countError("transport_error")
		return domain.EmbeddingResult{}, fmt.Errorf("embed request: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		e.countError("api_error")
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e.logger.Warn("Embedding request failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed request status %d: %w",
			resp.StatusCode, domain.ErrEmbeddingProviderError)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		e.countError("decode_error")
		return domain.EmbeddingResult{}, fmt.Errorf("decode embed response: %w: %w",
			domain.ErrEmbeddingProviderError, err)
	}
	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) == 0 {
		e.countError("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w",
			domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(duration.Seconds())

	return domain.EmbeddingResult{Embedding: parsed.Embeddings[0]}, nil
}

// HealthCheck probes the worker's health endpoint.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := e.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("worker health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("worker health status %d", resp.StatusCode)
	}
	return nil
}

func (e *Embedder) countError(kind string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, kind).Inc()
}
