package sdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Search modes.
const (
	ModeKeyword = "keyword"
	ModeVector  = "vector"
	ModeHybrid  = "hybrid"
)

// Sort orders.
const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortPinned    = "pinned"
)

// SearchParams describes one search request. Zero values are omitted and the
// server applies its defaults (keyword mode, relevance sort, page size 20).
type SearchParams struct {
	Query        string
	Mode         string
	Sort         string
	ResourceType string
	Domain       string
	Status       string
	IsPinned     *bool
	Tags         []string
	Page         int
	PageSize     int
}

// SearchItem is one resource in a search result page.
type SearchItem struct {
	ResourceID int64      `json:"resourceId"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Memo       string     `json:"memo"`
	Status     string     `json:"status"`
	IsPinned   bool       `json:"isPinned"`
	CreatedAt  *time.Time `json:"createdAt"`
	URL        string     `json:"url"`
	Domain     string     `json:"domain"`
	FilePath   string     `json:"filePath"`
	MimeType   string     `json:"mimeType"`
	FileSize   *int64     `json:"fileSize"`
	SHA256     string     `json:"sha256"`
	Tags       []string   `json:"tags"`
	MatchCount int        `json:"matchCount"`
	BestScore  float64    `json:"bestScore"`
	Snippet    string     `json:"bestSnippet"`
	PageIndex  *int       `json:"bestPageIndex"`
}

// SearchPage is a ranked, paginated search response.
type SearchPage struct {
	Items      []SearchItem `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"totalPages"`
}

// Search runs a search request against /api/search.
func (c *Client) Search(ctx context.Context, params SearchParams) (SearchPage, error) {
	q := url.Values{}
	q.Set("q", params.Query)
	setIf(q, "mode", params.Mode)
	setIf(q, "sort", params.Sort)
	setIf(q, "resourceType", params.ResourceType)
	setIf(q, "domain", params.Domain)
	setIf(q, "status", params.Status)
	if params.IsPinned != nil {
		q.Set("isPinned", strconv.FormatBool(*params.IsPinned))
	}
	if len(params.Tags) > 0 {
		q.Set("tags", strings.Join(params.Tags, ","))
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(params.PageSize))
	}

	var page SearchPage
	if err := c.do(ctx, http.MethodGet, "/api/search", q, nil, &page); err != nil {
		return SearchPage{}, err
	}
	return page, nil
}

func setIf(q url.Values, key, val string) {
	if val != "" {
		q.Set(key, val)
	}
}
