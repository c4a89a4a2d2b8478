package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/collecta-cloud/collecta/internal/domain"
	"github.com/collecta-cloud/collecta/internal/domain/search/filter"
	"github.com/collecta-cloud/collecta/internal/domain/search/mode"
	"github.com/collecta-cloud/collecta/internal/domain/search/query"
	"github.com/collecta-cloud/collecta/internal/domain/search/request"
	"github.com/collecta-cloud/collecta/internal/domain/search/result"
)

type fakeIndex struct {
	calls int
	lastQ query.Query
	hits  []result.Hit
	err   error
}

func (f *fakeIndex) SearchChunks(_ context.Context, q query.Query) ([]result.Hit, error) {
	f.calls++
	f.lastQ = q
	return f.hits, f.err
}

type fakeMeta struct {
	calls   int
	lastIDs []int64
	metas   map[int64]domain.ResourceMeta
	err     error
}

func (f *fakeMeta) FindByIDs(_ context.Context, ids []int64) (map[int64]domain.ResourceMeta, error) {
	f.calls++
	f.lastIDs = ids
	return f.metas, f.err
}

type fakeEmbedder struct {
	calls  int
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vector}, nil
}

func mustRequest(t *testing.T, q string, m mode.Mode, page, pageSize int) *request.Request {
	t.Helper()
	req, err := request.New(q, m, request.Relevance, filter.Filters{}, page, pageSize)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return &req
}

func TestSearchBlankQueryShortCircuits(t *testing.T) {
	index := &fakeIndex{}
	meta := &fakeMeta{}
	emb := &fakeEmbedder{}
	svc := New(index, meta, emb)

	page, err := svc.Search(context.Background(), mustRequest(t, "   ", mode.Hybrid, 2, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if index.calls != 0 || meta.calls != 0 || emb.calls != 0 {
		t.Errorf("expected no collaborator calls, got index=%d meta=%d embed=%d",
			index.calls, meta.calls, emb.calls)
	}
	if len(page.Items) != 0 || page.Total != 0 || page.TotalPages != 0 {
		t.Errorf("expected empty page, got %+v", page)
	}
	if page.Page != 2 || page.PageSize != 10 {
		t.Errorf("expected paging inputs echoed, got page=%d pageSize=%d", page.Page, page.PageSize)
	}
}

func TestSearchKeywordSkipsEmbedding(t *testing.T) {
	index := &fakeIndex{}
	meta := &fakeMeta{metas: map[int64]domain.ResourceMeta{}}
	emb := &fakeEmbedder{}
	svc := New(index, meta, emb)

	if _, err := svc.Search(context.Background(), mustRequest(t, "golang", mode.Keyword, 0, 20)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if emb.calls != 0 {
		t.Errorf("expected embedder untouched in keyword mode, got %d calls", emb.calls)
	}
	if index.lastQ.Vector != nil {
		t.Errorf("expected no vector on keyword query")
	}
}

func TestSearchHybridEmbedsQuery(t *testing.T) {
	index := &fakeIndex{}
	meta := &fakeMeta{metas: map[int64]domain.ResourceMeta{}}
	emb := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	svc := New(index, meta, emb)

	if _, err := svc.Search(context.Background(), mustRequest(t, "golang", mode.Hybrid, 0, 20)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if emb.calls != 1 {
		t.Fatalf("expected one embed call, got %d", emb.calls)
	}
	if len(index.lastQ.Vector) != 2 {
		t.Errorf("expected query vector forwarded to the index, got %v", index.lastQ.Vector)
	}
	if index.lastQ.HybridWeight != DefaultHybridWeight {
		t.Errorf("expected hybrid weight %v, got %v", DefaultHybridWeight, index.lastQ.HybridWeight)
	}
}

func TestSearchEmbeddingFailureAborts(t *testing.T) {
	index := &fakeIndex{}
	meta := &fakeMeta{}
	emb := &fakeEmbedder{err: fmt.Errorf("provider down: %w", domain.ErrEmbeddingProviderError)}
	svc := New(index, meta, emb)

	_, err := svc.Search(context.Background(), mustRequest(t, "golang", mode.Vector, 0, 20))
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected embedding provider error, got %v", err)
	}
	if index.calls != 0 {
		t.Errorf("expected no index call after embed failure, got %d", index.calls)
	}
}

func TestSearchCandidateWindowSize(t *testing.T) {
	index := &fakeIndex{}
	meta := &fakeMeta{metas: map[int64]domain.ResourceMeta{}}
	svc := New(index, meta, &fakeEmbedder{})

	if _, err := svc.Search(context.Background(), mustRequest(t, "q", mode.Keyword, 0, 5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.lastQ.Size != 300 {
		t.Errorf("expected floor of 300 for a small page, got %d", index.lastQ.Size)
	}

	if _, err := svc.Search(context.Background(), mustRequest(t, "q", mode.Keyword, 0, 50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.lastQ.Size != 1500 {
		t.Errorf("expected 50*30=1500 candidates, got %d", index.lastQ.Size)
	}
}

func TestSearchPagination(t *testing.T) {
	// 45 distinct resources, one hit each, scores descending by resource id.
	hits := make([]result.Hit, 0, 45)
	for i := 1; i <= 45; i++ {
		hits = append(hits, result.Hit{ResourceID: int64(i), Score: float64(100 - i)})
	}
	metas := make(map[int64]domain.ResourceMeta, 45)
	for i := 1; i <= 45; i++ {
		metas[int64(i)] = domain.ResourceMeta{ResourceID: int64(i), Type: domain.ResourceTypeLink}
	}

	index := &fakeIndex{hits: hits}
	meta := &fakeMeta{metas: metas}
	svc := New(index, meta, &fakeEmbedder{})

	page, err := svc.Search(context.Background(), mustRequest(t, "q", mode.Keyword, 2, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.Total != 45 {
		t.Errorf("expected total 45, got %d", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", page.TotalPages)
	}
	if len(page.Items) != 5 {
		t.Fatalf("expected 5 items on the last page, got %d", len(page.Items))
	}
	if page.Items[0].ResourceID != 41 {
		t.Errorf("expected last page to start at resource 41, got %d", page.Items[0].ResourceID)
	}
	if len(meta.lastIDs) != 5 {
		t.Errorf("expected metadata lookup bounded to the page, got %d ids", len(meta.lastIDs))
	}
}

func TestSearchPageBeyondEnd(t *testing.T) {
	index := &fakeIndex{hits: []result.Hit{{ResourceID: 1, Score: 1.0}}}
	meta := &fakeMeta{}
	svc := New(index, meta, &fakeEmbedder{})

	page, err := svc.Search(context.Background(), mustRequest(t, "q", mode.Keyword, 9, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Items) != 0 {
		t.Errorf("expected empty page beyond the end, got %d items", len(page.Items))
	}
	if page.Total != 1 || page.TotalPages != 1 {
		t.Errorf("expected totals preserved, got total=%d totalPages=%d", page.Total, page.TotalPages)
	}
	if meta.calls != 0 {
		t.Errorf("expected no metadata lookup for an empty slice, got %d calls", meta.calls)
	}
}

func TestSearchMergePreservesRankOrder(t *testing.T) {
	now := time.Now()
	index := &fakeIndex{hits: []result.Hit{
		{ResourceID: 5, Score: 3.0, Snippet: "five"},
		{ResourceID: 9, Score: 2.0, Snippet: "nine"},
		{ResourceID: 2, Score: 1.0, Snippet: "two"},
	}}
	meta := &fakeMeta{metas: map[int64]domain.ResourceMeta{
		2: {ResourceID: 2, Title: "two", CreatedAt: now},
		5: {ResourceID: 5, Title: "five", CreatedAt: now},
		9: {ResourceID: 9, Title: "nine", CreatedAt: now},
	}}
	svc := New(index, meta, &fakeEmbedder{})

	page, err := svc.Search(context.Background(), mustRequest(t, "q", mode.Keyword, 0, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int64{5, 9, 2}
	for i, id := range want {
		if page.Items[i].ResourceID != id {
			t.Errorf("position %d: expected resource %d, got %d", i, id, page.Items[i].ResourceID)
		}
	}
	if page.Items[0].Title != "five" {
		t.Errorf("expected canonical title merged in, got %q", page.Items[0].Title)
	}
}

func TestSearchMissingMetadataDegrades(t *testing.T) {
	index := &fakeIndex{hits: []result.Hit{
		{ResourceID: 1, Score: 2.0, ResourceType: domain.ResourceTypeLink, Snippet: "kept"},
		{ResourceID: 2, Score: 1.0, ResourceType: domain.ResourceTypeDocument, Snippet: "gone"},
	}}
	meta := &fakeMeta{metas: map[int64]domain.ResourceMeta{
		1: {ResourceID: 1, Title: "kept"},
	}}
	svc := New(index, meta, &fakeEmbedder{})

	page, err := svc.Search(context.Background(), mustRequest(t, "q", mode.Keyword, 0, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Items) != 2 {
		t.Fatalf("expected both items, got %d", len(page.Items))
	}
	fallback := page.Items[1]
	if fallback.ResourceID != 2 || fallback.Type != domain.ResourceTypeDocument {
		t.Errorf("expected index-derived fallback fields, got %+v", fallback)
	}
	if fallback.Title != "" || fallback.CreatedAt != nil {
		t.Errorf("expected relational fields zero on fallback, got title=%q createdAt=%v",
			fallback.Title, fallback.CreatedAt)
	}
	if fallback.Snippet != "gone" || fallback.MatchCount != 1 {
		t.Errorf("expected match statistics preserved on fallback, got %+v", fallback)
	}
}

func TestSearchIndexErrorPropagates(t *testing.T) {
	index := &fakeIndex{err: fmt.Errorf("boom: %w", domain.ErrUpstreamUnavailable)}
	svc := New(index, &fakeMeta{}, &fakeEmbedder{})

	_, err := svc.Search(context.Background(), mustRequest(t, "q", mode.Keyword, 0, 20))
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestSearchMetadataErrorPropagates(t *testing.T) {
	index := &fakeIndex{hits: []result.Hit{{ResourceID: 1, Score: 1.0}}}
	meta := &fakeMeta{err: errors.New("db gone")}
	svc := New(index, meta, &fakeEmbedder{})

	_, err := svc.Search(context.Background(), mustRequest(t, "q", mode.Keyword, 0, 20))
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
