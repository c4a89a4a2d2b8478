package request

import (
	"fmt"

	"github.com/collecta-cloud/collecta/internal/domain/search/filter"
	"github.com/collecta-cloud/collecta/internal/domain/search/mode"
)

// Pagination bounds. Page size is clamped to [1, MaxPageSize] with
// DefaultPageSize substituted for non-positive values.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sort orders grouped results.
type Sort string

// Sort constants.
const (
	// Relevance orders by best score descending (default).
	Relevance Sort = "relevance"
	// Newest orders by created_at descending, then best score.
	Newest Sort = "newest"
	// Pinned orders pinned resources first, then best score.
	Pinned Sort = "pinned"
)

// IsValid checks if the sort is one of the supported values.
func (s Sort) IsValid() bool {
	return s == Relevance || s == Newest || s == Pinned
}

// Request is a validated, clamped search request.
type Request struct {
	query    string
	mode     mode.Mode
	sort     Sort
	filters  filter.Filters
	page     int
	pageSize int
}

// New validates and creates a Request. Page is clamped to >= 0; pageSize to
// [1, MaxPageSize], defaulting to DefaultPageSize when non-positive. Empty
// mode defaults to keyword, empty sort to relevance.
func New(
	query string, m mode.Mode, sort Sort,
	filters filter.Filters, page, pageSize int,
) (Request, error) {
	if m == "" {
		m = mode.Keyword
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("unsupported search mode %q", m)
	}
	if sort == "" {
		sort = Relevance
	}
	if !sort.IsValid() {
		return Request{}, fmt.Errorf("unsupported sort %q", sort)
	}

	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return Request{
		query:    query,
		mode:     m,
		sort:     sort,
		filters:  filters,
		page:     page,
		pageSize: pageSize,
	}, nil
}

// Query returns the query text.
func (r *Request) Query() string { return r.query }

// Mode returns the scoring strategy.
func (r *Request) Mode() mode.Mode { return r.mode }

// Sort returns the result ordering.
func (r *Request) Sort() Sort { return r.sort }

// Filters returns the structured predicates.
func (r *Request) Filters() filter.Filters { return r.filters }

// Page returns the clamped zero-based page number.
func (r *Request) Page() int { return r.page }

// PageSize returns the clamped page size.
func (r *Request) PageSize() int { return r.pageSize }
