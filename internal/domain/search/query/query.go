// Package query describes the single request issued to the chunk index per
// search: the scored query plus filters and the oversized candidate window.
package query

import (
	"github.com/collecta-cloud/collecta/internal/domain/search/filter"
	"github.com/collecta-cloud/collecta/internal/domain/search/mode"
)

// Query is one chunk-index search.
type Query struct {
	Mode    mode.Mode
	Text    string
	Vector  []float32 // set for vector and hybrid modes
	Filters filter.Filters
	Size    int // candidate window, already oversized relative to the page

	// HybridWeight scales the similarity term added to the lexical score in
	// hybrid mode. Ignored for other modes.
	HybridWeight float64
}
