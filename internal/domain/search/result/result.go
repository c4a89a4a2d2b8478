package result

import (
	"strings"
	"time"
)

// SnippetMaxLen bounds the raw-text fallback snippet, in runes.
const SnippetMaxLen = 220

// Hit is one chunk-level match from the index. CreatedAt is carried as the
// index's ISO-8601 string; it is only compared lexicographically for sorting.
type Hit struct {
	ResourceID   int64
	ResourceType string
	Domain       string
	Tags         []string
	PageIndex    *int
	Score        float64
	Snippet      string
	IsPinned     *bool
	CreatedAt    string
}

// Group is the per-resource reduction of the hits in one candidate window:
// the hit count plus the attributes of the best-scoring hit seen so far.
type Group struct {
	ResourceID   int64
	MatchCount   int
	BestScore    float64
	ResourceType string
	Domain       string
	Tags         []string
	Snippet      string
	PageIndex    *int
	IsPinned     *bool
	CreatedAt    string
}

// Item is one resource in the final response: canonical metadata from the
// relational store merged with the match statistics from the index.
type Item struct {
	ResourceID int64
	Type       string

	Title     string
	Memo      string
	Status    string
	IsPinned  bool
	CreatedAt *time.Time

	URL    string
	Domain string

	FilePath string
	MimeType string
	FileSize *int64
	SHA256   string

	Tags []string

	MatchCount int
	BestScore  float64
	Snippet    string
	PageIndex  *int
}

// Page is a ranked, paginated result set.
type Page struct {
	Items      []Item
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// EmptyPage returns a page with no items, echoing the clamped paging inputs.
func EmptyPage(page, pageSize int) Page {
	return Page{Items: []Item{}, Page: page, PageSize: pageSize}
}

// Snippet picks the display snippet for a hit: the highlighted fragments when
// the index produced any, otherwise the raw chunk text truncated to
// SnippetMaxLen runes with an ellipsis. Truncation counts runes, never bytes,
// so multi-byte text is not cut mid-character.
func Snippet(highlights []string, text string) string {
	if len(highlights) > 0 {
		return strings.Join(highlights, " ")
	}
	t := strings.TrimSpace(text)
	runes := []rune(t)
	if len(runes) <= SnippetMaxLen {
		return t
	}
	return string(runes[:SnippetMaxLen]) + "…"
}
