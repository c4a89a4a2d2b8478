// Package filter describes the structured predicates of a search request.
// Optional scalar filters model presence explicitly via pointers rather than
// sentinel empty strings, so "filter on empty status" and "no status filter"
// stay distinguishable at the boundary.
package filter

// Filters are exact-match predicates applied alongside the scored query.
// Tags has OR semantics: a chunk matches if ANY requested tag is present.
type Filters struct {
	ResourceType *string
	Domain       *string
	Status       *string
	IsPinned     *bool
	Tags         []string
}

// IsEmpty reports whether no predicate is set.
func (f Filters) IsEmpty() bool {
	return f.ResourceType == nil && f.Domain == nil && f.Status == nil &&
		f.IsPinned == nil && len(f.Tags) == 0
}

// String returns a pointer to s, or nil when s is blank. Convenience for
// building Filters from optional query parameters.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
