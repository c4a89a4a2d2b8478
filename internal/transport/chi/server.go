// Package chi is the HTTP API: search, ingest, worker callbacks, health.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/collecta-cloud/collecta/internal/domain"
	"github.com/collecta-cloud/collecta/internal/domain/search/filter"
	"github.com/collecta-cloud/collecta/internal/domain/search/mode"
	"github.com/collecta-cloud/collecta/internal/domain/search/request"
	"github.com/collecta-cloud/collecta/internal/domain/search/result"
	healthuc "github.com/collecta-cloud/collecta/internal/usecase/health"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeUpstream         = "upstream_unavailable"
	codeEmbedding        = "embedding_provider_error"
	codeInternal         = "internal_error"
)

// Searcher runs search requests.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Page, error)
}

// Ingester registers resources and serves ingest tracking.
type Ingester interface {
	CreateLink(ctx context.Context, link domain.NewLink) (int64, error)
	CreateDocument(ctx context.Context, doc domain.NewDocument) (int64, error)
	Delete(ctx context.Context, resourceID int64) error
	GetStatus(ctx context.Context, resourceID int64) (domain.IngestJob, error)
	ListRecent(ctx context.Context, limit int) ([]domain.IngestJob, error)
	UpdateStatus(ctx context.Context, resourceID int64, status string, errorMessage *string) error
	UpdateProgress(ctx context.Context, resourceID int64, stage string, totalUnits, processedUnits *int) error
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	ingest        Ingester
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, ingest Ingester, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		ingest: ingest,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbedding),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, codeUpstream),
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/search", s.handleSearch)
	r.Post("/api/ingest/links", s.handleCreateLink)
	r.Post("/api/ingest/documents", s.handleCreateDocument)
	r.Delete("/api/resources/{id}", s.handleDeleteResource)
	r.Get("/api/ingest/recent", s.handleListRecent)
	r.Get("/api/ingest/{resourceID}", s.handleGetStatus)
	r.Post("/api/ingest/status", s.handleUpdateStatus)
	r.Post("/api/ingest/progress", s.handleUpdateProgress)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// handleSearch handles GET /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := filter.Filters{
		ResourceType: optString(q.Get("resourceType")),
		Domain:       optString(q.Get("domain")),
		Status:       optString(q.Get("status")),
	}
	if v := q.Get("isPinned"); v != "" {
		pinned, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "isPinned must be a boolean")
			return
		}
		filters.IsPinned = &pinned
	}
	if v := q.Get("tags"); v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filters.Tags = append(filters.Tags, t)
			}
		}
	}

	page, err := optInt(q.Get("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "page must be an integer")
		return
	}
	pageSize, err := optInt(q.Get("pageSize"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "pageSize must be an integer")
		return
	}

	req, err := request.New(
		q.Get("q"), mode.Mode(q.Get("mode")), request.Sort(q.Get("sort")),
		filters, page, pageSize,
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	pageResult, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchPageToDTO(pageResult))
}

type createLinkRequest struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Memo     string   `json:"memo"`
	Status   string   `json:"status"`
	IsPinned bool     `json:"isPinned"`
	Tags     []string `json:"tags"`
}

// handleCreateLink handles POST /api/ingest/links.
func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, err := s.ingest.CreateLink(r.Context(), domain.NewLink{
		URL:      req.URL,
		Title:    req.Title,
		Memo:     req.Memo,
		Status:   req.Status,
		IsPinned: req.IsPinned,
		Tags:     req.Tags,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"resourceId": id})
}

type createDocumentRequest struct {
	Title    string   `json:"title"`
	Memo     string   `json:"memo"`
	Status   string   `json:"status"`
	IsPinned bool     `json:"isPinned"`
	Tags     []string `json:"tags"`
	FilePath string   `json:"filePath"`
	FileName string   `json:"fileName"`
	MimeType string   `json:"mimeType"`
	FileSize int64    `json:"fileSize"`
	SHA256   string   `json:"sha256"`
}

// handleCreateDocument handles POST /api/ingest/documents.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, err := s.ingest.CreateDocument(r.Context(), domain.NewDocument{
		Title:    req.Title,
		Memo:     req.Memo,
		Status:   req.Status,
		IsPinned: req.IsPinned,
		Tags:     req.Tags,
		FilePath: req.FilePath,
		FileName: req.FileName,
		MimeType: req.MimeType,
		FileSize: req.FileSize,
		SHA256:   req.SHA256,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"resourceId": id})
}

// handleDeleteResource handles DELETE /api/resources/{id}.
func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "resource id must be an integer")
		return
	}

	if err := s.ingest.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetStatus handles GET /api/ingest/{resourceID}.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "resourceID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "resource id must be an integer")
		return
	}

	job, err := s.ingest.GetStatus(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobToDTO(job))
}

// handleListRecent handles GET /api/ingest/recent.
func (s *Server) handleListRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := optInt(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be an integer")
		return
	}

	jobs, err := s.ingest.ListRecent(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]ingestJobDTO, len(jobs))
	for i, j := range jobs {
		items[i] = jobToDTO(j)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type updateStatusRequest struct {
	ResourceID   int64   `json:"resourceId"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"errorMessage"`
}

// handleUpdateStatus handles POST /api/ingest/status (worker callback).
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.ingest.UpdateStatus(r.Context(), req.ResourceID, req.Status, req.ErrorMessage); err != nil {
		s.handleDomainError(w, err)
		return
	}

	job, err := s.ingest.GetStatus(r.Context(), req.ResourceID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobToDTO(job))
}

type updateProgressRequest struct {
	ResourceID     int64  `json:"resourceId"`
	Stage          string `json:"stage"`
	TotalUnits     *int   `json:"totalUnits"`
	ProcessedUnits *int   `json:"processedUnits"`
}

// handleUpdateProgress handles POST /api/ingest/progress (worker callback).
func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req updateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.ingest.UpdateProgress(r.Context(), req.ResourceID, req.Stage,
		req.TotalUnits, req.ProcessedUnits); err != nil {
		s.handleDomainError(w, err)
		return
	}

	job, err := s.ingest.GetStatus(r.Context(), req.ResourceID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobToDTO(job))
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// --- DTOs (camelCase wire format) ---

type searchItemDTO struct {
	ResourceID int64      `json:"resourceId"`
	Type       string     `json:"type"`
	Title      string     `json:"title,omitempty"`
	Memo       string     `json:"memo,omitempty"`
	Status     string     `json:"status,omitempty"`
	IsPinned   bool       `json:"isPinned"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	URL        string     `json:"url,omitempty"`
	Domain     string     `json:"domain,omitempty"`
	FilePath   string     `json:"filePath,omitempty"`
	MimeType   string     `json:"mimeType,omitempty"`
	FileSize   *int64     `json:"fileSize,omitempty"`
	SHA256     string     `json:"sha256,omitempty"`
	Tags       []string   `json:"tags"`
	MatchCount int        `json:"matchCount"`
	BestScore  float64    `json:"bestScore"`
	Snippet    string     `json:"bestSnippet,omitempty"`
	PageIndex  *int       `json:"bestPageIndex,omitempty"`
}

type searchPageDTO struct {
	Items      []searchItemDTO `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"totalPages"`
}

func searchPageToDTO(p result.Page) searchPageDTO {
	items := make([]searchItemDTO, len(p.Items))
	for i, it := range p.Items {
		tags := it.Tags
		if tags == nil {
			tags = []string{}
		}
		items[i] = searchItemDTO{
			ResourceID: it.ResourceID,
			Type:       it.Type,
			Title:      it.Title,
			Memo:       it.Memo,
			Status:     it.Status,
			IsPinned:   it.IsPinned,
			CreatedAt:  it.CreatedAt,
			URL:        it.URL,
			Domain:     it.Domain,
			FilePath:   it.FilePath,
			MimeType:   it.MimeType,
			FileSize:   it.FileSize,
			SHA256:     it.SHA256,
			Tags:       tags,
			MatchCount: it.MatchCount,
			BestScore:  it.BestScore,
			Snippet:    it.Snippet,
			PageIndex:  it.PageIndex,
		}
	}
	return searchPageDTO{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

type ingestJobDTO struct {
	ResourceID     int64     `json:"resourceId"`
	ResourceType   string    `json:"resourceType"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	Stage          *string   `json:"stage,omitempty"`
	TotalUnits     *int      `json:"totalUnits,omitempty"`
	ProcessedUnits *int      `json:"processedUnits,omitempty"`
	ErrorMessage   *string   `json:"errorMessage,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func jobToDTO(j domain.IngestJob) ingestJobDTO {
	return ingestJobDTO{
		ResourceID:     j.ResourceID,
		ResourceType:   j.ResourceType,
		Title:          j.Title,
		Status:         j.Status,
		Stage:          j.Stage,
		TotalUnits:     j.TotalUnits,
		ProcessedUnits: j.ProcessedUnits,
		ErrorMessage:   j.ErrorMessage,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

// --- helpers ---

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidInput,
		domain.ErrUpstreamUnavailable,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
