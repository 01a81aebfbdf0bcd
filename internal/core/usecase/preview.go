package usecase

import (
	"fmt"
	"strings"

	"github.com/ktanabe/askrag/internal/core/domain"
)

const previewSnippetChars = 200

// buildDocPreviews formats the first limit document hits as
// "[{name} p.{page}] {snippet}". A missing page renders as "-".
func buildDocPreviews(hits []domain.DocHit, limit int) []string {
	out := make([]string, 0, limit)
	for _, h := range hits {
		if len(out) >= limit {
			break
		}
		page := "-"
		if h.Page != nil {
			page = fmt.Sprintf("%d", *h.Page)
		}
		out = append(out, fmt.Sprintf("[%s p.%s] %s", h.DisplayName(), page, truncateRunes(h.Snippet, previewSnippetChars)))
	}
	return out
}

// buildWebPreviews formats the first limit web hits as
// "[web {rank}] {title or url} — {snippet}".
func buildWebPreviews(hits []domain.WebHit, limit int) []string {
	out := make([]string, 0, limit)
	for _, h := range hits {
		if len(out) >= limit {
			break
		}
		label := h.Title
		if strings.TrimSpace(label) == "" {
			label = h.URL
		}
		out = append(out, fmt.Sprintf("[web %d] %s — %s", h.Rank, label, truncateRunes(h.Snippet, previewSnippetChars)))
	}
	return out
}

// dedupPreviews keeps first-seen order and treats two entries as duplicates
// when they share identical text up to (not including) the first ']'.
// Survivors get their whitespace collapsed; the result is capped at limit.
func dedupPreviews(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, limit)
	for _, item := range items {
		key := item
		if idx := strings.IndexByte(item, ']'); idx >= 0 {
			key = item[:idx]
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, collapseWhitespace(item))
		if len(out) >= limit {
			break
		}
	}
	return out
}

// summarizeSources maps hits to UI source records, doc sources first.
// Sources are intentionally not deduplicated; repeats are legitimate here.
func summarizeSources(docHits []domain.DocHit, webHits []domain.WebHit) []domain.Source {
	out := make([]domain.Source, 0, len(docHits)+len(webHits))
	for _, h := range docHits {
		score := h.Score
		out = append(out, domain.Source{
			Title: h.DisplayName(),
			Kind:  domain.SourceDoc,
			Score: &score,
			Page:  h.Page,
			Path:  h.Path,
		})
	}
	for _, h := range webHits {
		title := h.Title
		if strings.TrimSpace(title) == "" {
			title = h.URL
		}
		out = append(out, domain.Source{
			Title: title,
			Kind:  domain.SourceWeb,
			Score: h.Score,
			URL:   h.URL,
		})
	}
	return out
}
