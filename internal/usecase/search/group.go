package search

import (
	"sort"

	"github.com/collecta-cloud/collecta/internal/domain/search/request"
	"github.com/collecta-cloud/collecta/internal/domain/search/result"
)

// groupByResource folds chunk hits down to one group per resource: the hit
// count plus the attributes of the best-scoring hit. The comparison is a
// strict greater-than, so on exactly equal scores the first-observed hit
// keeps the representative slot; since the index returns hits
// score-descending, near-ties resolve arbitrarily. BestScore is the maximum
// within the candidate window, which may undercount if the window truncated.
func groupByResource(hits []result.Hit) []result.Group {
	byResource := make(map[int64]*result.Group)
	order := make([]int64, 0, len(hits))

	for _, hit := range hits {
		g, ok := byResource[hit.ResourceID]
		if !ok {
			g = &result.Group{ResourceID: hit.ResourceID, BestScore: -1.0}
			byResource[hit.ResourceID] = g
			order = append(order, hit.ResourceID)
		}
		g.MatchCount++

		if hit.Score > g.BestScore {
			g.BestScore = hit.Score
			g.ResourceType = hit.ResourceType
			g.Domain = hit.Domain
			g.Tags = hit.Tags
			g.Snippet = hit.Snippet
			g.PageIndex = hit.PageIndex
			g.IsPinned = hit.IsPinned
			g.CreatedAt = hit.CreatedAt
		}
	}

	groups := make([]result.Group, 0, len(byResource))
	for _, id := range order {
		groups = append(groups, *byResource[id])
	}
	return groups
}

// sortGroups orders groups per the requested sort. Stable, so resources that
// compare equal keep their first-observed order.
func sortGroups(groups []result.Group, s request.Sort) {
	switch s {
	case request.Pinned:
		sort.SliceStable(groups, func(i, j int) bool {
			pi, pj := pinned(groups[i]), pinned(groups[j])
			if pi != pj {
				return pi
			}
			return groups[i].BestScore > groups[j].BestScore
		})
	case request.Newest:
		sort.SliceStable(groups, func(i, j int) bool {
			// Stored ISO-8601 strings order lexicographically by time;
			// missing timestamps sort last.
			if groups[i].CreatedAt != groups[j].CreatedAt {
				return groups[i].CreatedAt > groups[j].CreatedAt
			}
			return groups[i].BestScore > groups[j].BestScore
		})
	default: // relevance
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].BestScore > groups[j].BestScore
		})
	}
}

func pinned(g result.Group) bool {
	return g.IsPinned != nil && *g.IsPinned
}
