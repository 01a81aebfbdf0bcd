package usecase

import (
	"strings"
	"testing"

	"github.com/ktanabe/askrag/internal/core/domain"
)

func intPtr(v int) *int { return &v }

func TestBuildDocPreviewsFormatsNameAndPage(t *testing.T) {
	hits := []domain.DocHit{
		{Document: "report.pdf", Page: intPtr(4), Snippet: "quarterly numbers"},
		{File: "notes.md", Snippet: "meeting notes"},
	}

	out := buildDocPreviews(hits, 3)
	if len(out) != 2 {
		t.Fatalf("expected 2 previews, got %d", len(out))
	}
	if out[0] != "[report.pdf p.4] quarterly numbers" {
		t.Fatalf("unexpected preview: %s", out[0])
	}
	if out[1] != "[notes.md p.-] meeting notes" {
		t.Fatalf("expected page fallback to '-', got %s", out[1])
	}
}

func TestBuildDocPreviewsNameFallsBackToLiteral(t *testing.T) {
	out := buildDocPreviews([]domain.DocHit{{Snippet: "text"}}, 1)
	if !strings.HasPrefix(out[0], "[document p.-]") {
		t.Fatalf("expected literal document fallback, got %s", out[0])
	}
}

func TestBuildDocPreviewsTruncatesSnippet(t *testing.T) {
	long := strings.Repeat("x", 500)
	out := buildDocPreviews([]domain.DocHit{{Document: "a", Snippet: long}}, 1)
	if got := len([]rune(out[0])); got > previewSnippetChars+len("[a p.-] ") {
		t.Fatalf("snippet not truncated, preview length %d", got)
	}
}

func TestBuildWebPreviewsUsesURLWhenTitleMissing(t *testing.T) {
	hits := []domain.WebHit{
		{Rank: 1, Title: "Example", URL: "https://example.com", Snippet: "snip"},
		{Rank: 2, URL: "https://other.example", Snippet: "more"},
	}

	out := buildWebPreviews(hits, 3)
	if out[0] != "[web 1] Example — snip" {
		t.Fatalf("unexpected preview: %s", out[0])
	}
	if out[1] != "[web 2] https://other.example — more" {
		t.Fatalf("expected url fallback, got %s", out[1])
	}
}

func TestDedupPreviewsDropsSharedBracketPrefix(t *testing.T) {
	items := []string{
		"[doc.pdf p.1] first body",
		"[doc.pdf p.1] completely different body",
		"[doc.pdf p.2] second page",
	}

	out := dedupPreviews(items, 10)
	if len(out) != 2 {
		t.Fatalf("expected 2 survivors, got %d: %v", len(out), out)
	}
	if out[0] != "[doc.pdf p.1] first body" || out[1] != "[doc.pdf p.2] second page" {
		t.Fatalf("first-seen order not preserved: %v", out)
	}
}

func TestDedupPreviewsNeverKeepsTwoEqualPrefixes(t *testing.T) {
	items := []string{"[a] 1", "[b] 2", "[a] 3", "[c] 4", "[b] 5"}
	out := dedupPreviews(items, 10)

	seen := map[string]struct{}{}
	for _, item := range out {
		prefix := item[:strings.IndexByte(item, ']')]
		if _, dup := seen[prefix]; dup {
			t.Fatalf("duplicate prefix %q in %v", prefix, out)
		}
		seen[prefix] = struct{}{}
	}
}

func TestDedupPreviewsCollapsesWhitespaceAndCaps(t *testing.T) {
	items := []string{"[a] one\n\ttwo   three", "[b] x", "[c] y", "[d] z"}
	out := dedupPreviews(items, 2)
	if len(out) != 2 {
		t.Fatalf("expected cap at 2, got %d", len(out))
	}
	if out[0] != "[a] one two three" {
		t.Fatalf("whitespace not collapsed: %q", out[0])
	}
}

func TestSummarizeSourcesKeepsRepeatsAndOrder(t *testing.T) {
	doc := []domain.DocHit{
		{Document: "a.pdf", Path: "docs/a.pdf", Score: 0.9, Page: intPtr(1)},
		{Document: "a.pdf", Path: "docs/a.pdf", Score: 0.8, Page: intPtr(1)},
	}
	web := []domain.WebHit{{Title: "W", URL: "https://w.example", Rank: 1}}

	out := summarizeSources(doc, web)
	if len(out) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(out))
	}
	if out[0].Kind != domain.SourceDoc || out[2].Kind != domain.SourceWeb {
		t.Fatalf("expected doc sources before web sources: %+v", out)
	}
	if out[2].Score != nil {
		t.Fatalf("web source without score should stay nil")
	}
	if out[0].Score == nil || *out[0].Score != 0.9 {
		t.Fatalf("doc score not carried over: %+v", out[0])
	}
}
