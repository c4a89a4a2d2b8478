package request

import (
	"testing"

	"github.com/collecta-cloud/collecta/internal/domain/search/filter"
	"github.com/collecta-cloud/collecta/internal/domain/search/mode"
)

func TestNewDefaults(t *testing.T) {
	r, err := New("golang", "", "", filter.Filters{}, 0, 0)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if r.Mode() != mode.Keyword {
		t.Errorf("empty mode must default to keyword, got %q", r.Mode())
	}
	if r.Sort() != Relevance {
		t.Errorf("empty sort must default to relevance, got %q", r.Sort())
	}
	if r.PageSize() != DefaultPageSize {
		t.Errorf("zero page size must default to %d, got %d", DefaultPageSize, r.PageSize())
	}
}

func TestNewClampsPaging(t *testing.T) {
	cases := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
	}{
		{"negative page", -3, 10, 0, 10},
		{"oversized page size", 2, 5000, 2, MaxPageSize},
		{"negative page size", 0, -1, 0, DefaultPageSize},
		{"in range", 4, 50, 4, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New("q", mode.Keyword, Relevance, filter.Filters{}, tc.page, tc.size)
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			if r.Page() != tc.wantPage || r.PageSize() != tc.wantPageSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d",
					r.Page(), r.PageSize(), tc.wantPage, tc.wantPageSize)
			}
		})
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	if _, err := New("q", mode.Mode("fuzzy"), Relevance, filter.Filters{}, 0, 20); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestNewRejectsUnknownSort(t *testing.T) {
	if _, err := New("q", mode.Keyword, Sort("oldest"), filter.Filters{}, 0, 20); err == nil {
		t.Fatal("expected error for unknown sort")
	}
}
