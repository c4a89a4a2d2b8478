// Package search answers one search request: score chunks by mode, group
// them per resource, rank, paginate, and enrich the current page with
// canonical metadata.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/collecta-cloud/collecta/internal/domain"
	"github.com/collecta-cloud/collecta/internal/domain/search/query"
	"github.com/collecta-cloud/collecta/internal/domain/search/request"
	"github.com/collecta-cloud/collecta/internal/domain/search/result"
	"github.com/collecta-cloud/collecta/internal/metrics"
)

// Tuning defaults. The fetch heuristic and fusion weight come from the
// original deployment; they are knobs, not invariants.
const (
	DefaultFetchFloor   = 300
	DefaultFetchPerPage = 30
	DefaultHybridWeight = 0.4
)

// Service handles resource search across keyword, vector, and hybrid modes.
type Service struct {
	index ChunkIndex
	meta  MetaReader
	embed Embedder

	fetchFloor   int
	fetchPerPage int
	hybridWeight float64
}

// New creates a search service with default tuning.
func New(index ChunkIndex, meta MetaReader, embed Embedder) *Service {
	return &Service{
		index:        index,
		meta:         meta,
		embed:        embed,
		fetchFloor:   DefaultFetchFloor,
		fetchPerPage: DefaultFetchPerPage,
		hybridWeight: DefaultHybridWeight,
	}
}

// WithTuning overrides the candidate-window heuristic and fusion weight.
// Non-positive values keep the defaults.
func (s *Service) WithTuning(fetchFloor, fetchPerPage int, hybridWeight float64) *Service {
	if fetchFloor > 0 {
		s.fetchFloor = fetchFloor
	}
	if fetchPerPage > 0 {
		s.fetchPerPage = fetchPerPage
	}
	if hybridWeight > 0 {
		s.hybridWeight = hybridWeight
	}
	return s
}

// Search executes one request. A blank query short-circuits to an empty page
// without touching any collaborator. An embedding failure aborts the request;
// a resource missing from the relational store does not (it degrades to an
// index-only item).
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	if strings.TrimSpace(req.Query()) == "" {
		return result.EmptyPage(req.Page(), req.PageSize()), nil
	}

	q := query.Query{
		Mode:         req.Mode(),
		Text:         req.Query(),
		Filters:      req.Filters(),
		Size:         s.fetchSize(req.PageSize()),
		HybridWeight: s.hybridWeight,
	}

	if req.Mode().NeedsEmbedding() {
		emb, err := s.embed.Embed(ctx, req.Query())
		if err != nil {
			metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "error").Inc()
			return result.Page{}, fmt.Errorf("vectorize query: %w", err)
		}
		q.Vector = emb.Embedding
	}

	hits, err := s.index.SearchChunks(ctx, q)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "error").Inc()
		return result.Page{}, fmt.Errorf("search chunks: %w", err)
	}
	metrics.SearchCandidateHits.Observe(float64(len(hits)))

	groups := groupByResource(hits)
	sortGroups(groups, req.Sort())

	page, err := s.paginateAndMerge(ctx, groups, req.Page(), req.PageSize())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "error").Inc()
		return result.Page{}, err
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "success").Inc()
	return page, nil
}

// fetchSize computes the oversized candidate window. Many chunks can map to
// one resource, so a page-sized fetch could starve the grouping step.
func (s *Service) fetchSize(pageSize int) int {
	size := pageSize * s.fetchPerPage
	if size < s.fetchFloor {
		size = s.fetchFloor
	}
	return size
}

// paginateAndMerge slices the ranked groups to the requested page and merges
// in canonical metadata with exactly one bulk lookup, bounded by the page
// size regardless of the candidate window.
func (s *Service) paginateAndMerge(
	ctx context.Context, groups []result.Group, page, pageSize int,
) (result.Page, error) {
	total := int64(len(groups))
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	out := result.Page{
		Items:      []result.Item{},
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}

	from := page * pageSize
	if int64(from) >= total {
		return out, nil
	}
	to := from + pageSize
	if int64(to) > total {
		to = int(total)
	}
	slice := groups[from:to]

	ids := make([]int64, len(slice))
	for i, g := range slice {
		ids[i] = g.ResourceID
	}

	metas, err := s.meta.FindByIDs(ctx, ids)
	if err != nil {
		return result.Page{}, fmt.Errorf("load metadata: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	// Rank order from the grouping step wins; the lookup map order is
	// irrelevant.
	items := make([]result.Item, 0, len(slice))
	for _, g := range slice {
		meta, ok := metas[g.ResourceID]
		if !ok {
			// Resource deleted after indexing, before this read. Degrade to
			// index-only fields rather than failing the request.
			items = append(items, fallbackItem(g))
			continue
		}
		items = append(items, mergeItem(g, meta))
	}
	out.Items = items
	return out, nil
}

func mergeItem(g result.Group, m domain.ResourceMeta) result.Item {
	createdAt := m.CreatedAt
	return result.Item{
		ResourceID: m.ResourceID,
		Type:       m.Type,
		Title:      m.Title,
		Memo:       m.Memo,
		Status:     m.Status,
		IsPinned:   m.IsPinned,
		CreatedAt:  &createdAt,
		URL:        m.URL,
		Domain:     m.Domain,
		FilePath:   m.FilePath,
		MimeType:   m.MimeType,
		FileSize:   m.FileSize,
		SHA256:     m.SHA256,
		Tags:       m.Tags, // canonical tags from the relational store
		MatchCount: g.MatchCount,
		BestScore:  g.BestScore,
		Snippet:    g.Snippet,
		PageIndex:  g.PageIndex,
	}
}

func fallbackItem(g result.Group) result.Item {
	return result.Item{
		ResourceID: g.ResourceID,
		Type:       g.ResourceType,
		Domain:     g.Domain,
		Tags:       g.Tags,
		MatchCount: g.MatchCount,
		BestScore:  g.BestScore,
		Snippet:    g.Snippet,
		PageIndex:  g.PageIndex,
	}
}
