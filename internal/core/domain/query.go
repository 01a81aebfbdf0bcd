package domain

import (
	"fmt"
	"strings"
)

// Mode selects which evidence sources a query consults.
type Mode string

const (
	ModeDoc    Mode = "doc"
	ModeWeb    Mode = "web"
	ModeHybrid Mode = "hybrid"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeDoc:
		return ModeDoc, nil
	case ModeWeb:
		return ModeWeb, nil
	case ModeHybrid:
		return ModeHybrid, nil
	default:
		return "", WrapError(ErrInvalidMode, "parse mode", fmt.Errorf("mode must be doc, web or hybrid, got %q", raw))
	}
}

// DocHit is one retrieved document chunk. The index payload may carry the
// document name under any of doc/name/file depending on who wrote it.
type DocHit struct {
	Document string  `json:"doc,omitempty"`
	Name     string  `json:"name,omitempty"`
	File     string  `json:"file,omitempty"`
	Path     string  `json:"path"`
	Page     *int    `json:"page,omitempty"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet,omitempty"`
}

// DisplayName resolves the document name through the ordered field
// preference doc, name, file, falling back to the literal "document".
func (h DocHit) DisplayName() string {
	for _, candidate := range []string{h.Document, h.Name, h.File} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return "document"
}

// WebHit is one web search result. Rank is 1-based search order.
type WebHit struct {
	Title   string   `json:"title,omitempty"`
	URL     string   `json:"url"`
	Rank    int      `json:"rank"`
	Score   *float64 `json:"score,omitempty"`
	Snippet string   `json:"snippet,omitempty"`
}

type SourceKind string

const (
	SourceDoc SourceKind = "doc"
	SourceWeb SourceKind = "web"
)

// Source is the UI-facing citation record. Unlike trace previews, sources
// are never deduplicated.
type Source struct {
	Title string     `json:"title"`
	Kind  SourceKind `json:"kind"`
	Score *float64   `json:"score"`
	Page  *int       `json:"page,omitempty"`
	Path  string     `json:"path,omitempty"`
	URL   string     `json:"url,omitempty"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the result of a single completion backend call.
type Completion struct {
	Text      string
	ElapsedMs int64
	Usage     *TokenUsage
}

// Answer is the payload returned to callers. Trace is attached only when
// the caller asked for it and the process-wide debug flag is set.
type Answer struct {
	Text    string       `json:"answer"`
	Sources []Source     `json:"sources"`
	Trace   *TraceRecord `json:"trace,omitempty"`
}
