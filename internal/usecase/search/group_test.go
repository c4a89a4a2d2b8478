package search

import (
	"testing"

	"github.com/collecta-cloud/collecta/internal/domain/search/request"
	"github.com/collecta-cloud/collecta/internal/domain/search/result"
)

func hit(resourceID int64, score float64, snippet string) result.Hit {
	return result.Hit{ResourceID: resourceID, Score: score, Snippet: snippet}
}

func TestGroupByResourceMaxReduction(t *testing.T) {
	hits := []result.Hit{
		hit(42, 1.2, "first"),
		hit(42, 3.5, "best"),
		hit(42, 2.0, "middle"),
	}

	groups := groupByResource(hits)

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.ResourceID != 42 {
		t.Errorf("expected resource 42, got %d", g.ResourceID)
	}
	if g.MatchCount != 3 {
		t.Errorf("expected match count 3, got %d", g.MatchCount)
	}
	if g.BestScore != 3.5 {
		t.Errorf("expected best score 3.5, got %f", g.BestScore)
	}
	if g.Snippet != "best" {
		t.Errorf("expected snippet from the best hit, got %q", g.Snippet)
	}
}

func TestGroupByResourceTieKeepsFirstHit(t *testing.T) {
	hits := []result.Hit{
		hit(7, 2.0, "first"),
		hit(7, 2.0, "second"),
	}

	groups := groupByResource(hits)

	if groups[0].Snippet != "first" {
		t.Errorf("expected first-observed hit to keep the slot on a tie, got %q", groups[0].Snippet)
	}
	if groups[0].MatchCount != 2 {
		t.Errorf("expected match count 2, got %d", groups[0].MatchCount)
	}
}

func TestGroupByResourcePreservesFirstSeenOrder(t *testing.T) {
	hits := []result.Hit{
		hit(3, 1.0, ""),
		hit(1, 1.0, ""),
		hit(3, 0.5, ""),
		hit(2, 1.0, ""),
	}

	groups := groupByResource(hits)

	want := []int64{3, 1, 2}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, id := range want {
		if groups[i].ResourceID != id {
			t.Errorf("position %d: expected resource %d, got %d", i, id, groups[i].ResourceID)
		}
	}
}

func TestSortGroupsRelevance(t *testing.T) {
	groups := []result.Group{
		{ResourceID: 1, BestScore: 1.0},
		{ResourceID: 2, BestScore: 3.0},
		{ResourceID: 3, BestScore: 2.0},
	}

	sortGroups(groups, request.Relevance)

	want := []int64{2, 3, 1}
	for i, id := range want {
		if groups[i].ResourceID != id {
			t.Errorf("position %d: expected resource %d, got %d", i, id, groups[i].ResourceID)
		}
	}
}

func TestSortGroupsNewest(t *testing.T) {
	groups := []result.Group{
		{ResourceID: 1, BestScore: 9.0, CreatedAt: "2026-01-01T00:00:00Z"},
		{ResourceID: 2, BestScore: 1.0, CreatedAt: "2026-03-01T00:00:00Z"},
		{ResourceID: 3, BestScore: 5.0, CreatedAt: "2026-02-01T00:00:00Z"},
	}

	sortGroups(groups, request.Newest)

	want := []int64{2, 3, 1}
	for i, id := range want {
		if groups[i].ResourceID != id {
			t.Errorf("position %d: expected resource %d, got %d", i, id, groups[i].ResourceID)
		}
	}
}

func TestSortGroupsNewestTieFallsBackToScore(t *testing.T) {
	groups := []result.Group{
		{ResourceID: 1, BestScore: 1.0, CreatedAt: "2026-01-01T00:00:00Z"},
		{ResourceID: 2, BestScore: 2.0, CreatedAt: "2026-01-01T00:00:00Z"},
	}

	sortGroups(groups, request.Newest)

	if groups[0].ResourceID != 2 {
		t.Errorf("expected higher score first on equal timestamps, got resource %d", groups[0].ResourceID)
	}
}

func TestSortGroupsPinnedFirst(t *testing.T) {
	pinnedTrue := true
	pinnedFalse := false
	groups := []result.Group{
		{ResourceID: 1, BestScore: 9.0, IsPinned: &pinnedFalse},
		{ResourceID: 2, BestScore: 1.0, IsPinned: &pinnedTrue},
		{ResourceID: 3, BestScore: 5.0, IsPinned: nil},
	}

	sortGroups(groups, request.Pinned)

	if groups[0].ResourceID != 2 {
		t.Fatalf("expected pinned resource first, got %d", groups[0].ResourceID)
	}
	if groups[1].ResourceID != 1 || groups[2].ResourceID != 3 {
		t.Errorf("expected unpinned resources by score, got %d then %d",
			groups[1].ResourceID, groups[2].ResourceID)
	}
}
