package usecase

import "strings"

// BuildContext enforces the context budget before synthesis: empty blocks
// are dropped, at most maxChunks survivors are kept in their original
// relevance order, whitespace runs collapse to single spaces and each block
// is truncated to maxCharsPerChunk characters. Every synthesis call sees
// only budgeted context, no matter how large retrieval output was.
func BuildContext(blocks []string, maxChunks, maxCharsPerChunk int) []string {
	out := make([]string, 0, maxChunks)
	for _, block := range blocks {
		if len(out) >= maxChunks {
			break
		}
		trimmed := collapseWhitespace(block)
		if trimmed == "" {
			continue
		}
		out = append(out, truncateRunes(trimmed, maxCharsPerChunk))
	}
	return out
}

// collapseWhitespace folds every whitespace run, newlines included, into a
// single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
