package localfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/ktanabe/askrag/internal/core/domain"
)

// Library reads document content back out of local storage: full
// page-attributed extraction for the ingest pipeline and bounded plain
// previews for answer contexts.
type Library struct {
	storage *Storage
}

func NewLibrary(storage *Storage) *Library {
	return &Library{storage: storage}
}

func (l *Library) Extract(_ context.Context, doc *domain.Document) ([]domain.PageText, error) {
	path, err := l.storage.resolve(doc.StoragePath)
	if err != nil {
		return nil, err
	}
	return extractPath(path)
}

// Preview is best effort: any extraction failure yields an empty string
// and the caller drops the block.
func (l *Library) Preview(_ context.Context, key string, limit int) string {
	path, err := l.storage.resolve(key)
	if err != nil {
		return ""
	}
	pages, err := extractPath(path)
	if err != nil {
		slog.Debug("document_preview_failed", "path", key, "error", err)
		return ""
	}

	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			parts = append(parts, p.Text)
		}
	}
	return truncateRunes(strings.Join(parts, "\n"), limit)
}

func extractPath(path string) ([]domain.PageText, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".xlsx":
		return extractXLSX(path)
	case ".txt", ".md", ".markdown":
		return extractPlain(path)
	default:
		return nil, fmt.Errorf("unsupported document type %q", filepath.Ext(path))
	}
}

func extractPDF(path string) ([]domain.PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	out := make([]domain.PageText, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// keep what the other pages gave us
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, domain.PageText{Page: i, Text: text})
	}
	return out, nil
}

func extractXLSX(path string) ([]domain.PageText, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer book.Close()

	var out []domain.PageText
	for i, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			continue
		}
		var b strings.Builder
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		if b.Len() == 0 {
			continue
		}
		out = append(out, domain.PageText{Page: i + 1, Text: b.String()})
	}
	return out, nil
}

func extractPlain(path string) ([]domain.PageText, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []domain.PageText{{Page: 0, Text: text}}, nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
