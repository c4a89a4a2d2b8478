package result

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSnippetPrefersHighlights(t *testing.T) {
	got := Snippet([]string{"<em>go</em> routines", "channel <em>go</em>"}, "raw text ignored")
	want := "<em>go</em> routines channel <em>go</em>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSnippetFallsBackToTrimmedText(t *testing.T) {
	got := Snippet(nil, "  short chunk  ")
	if got != "short chunk" {
		t.Errorf("got %q", got)
	}
}

func TestSnippetTruncatesByRunes(t *testing.T) {
	// Multi-byte text longer than the cap: the cut must land on a rune
	// boundary and count runes, not bytes.
	text := strings.Repeat("検索", 200)
	got := Snippet(nil, text)
	if !utf8.ValidString(got) {
		t.Fatal("truncation produced invalid UTF-8")
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatal("expected ellipsis suffix")
	}
	body := strings.TrimSuffix(got, "…")
	if n := utf8.RuneCountInString(body); n != SnippetMaxLen {
		t.Errorf("expected %d runes before the ellipsis, got %d", SnippetMaxLen, n)
	}
}

func TestSnippetExactCapIsNotTruncated(t *testing.T) {
	text := strings.Repeat("a", SnippetMaxLen)
	got := Snippet(nil, text)
	if got != text {
		t.Errorf("text at the cap must pass through unchanged")
	}
}

func TestEmptyPageEchoesPaging(t *testing.T) {
	p := EmptyPage(3, 25)
	if p.Page != 3 || p.PageSize != 25 {
		t.Errorf("got page=%d size=%d", p.Page, p.PageSize)
	}
	if p.Items == nil || len(p.Items) != 0 {
		t.Errorf("items must be an empty, non-nil slice: %v", p.Items)
	}
	if p.Total != 0 || p.TotalPages != 0 {
		t.Errorf("totals must be zero: %d %d", p.Total, p.TotalPages)
	}
}
