package ports

import (
	"context"
	"io"
	"time"

	"github.com/ktanabe/askrag/internal/core/domain"
)

// VectorIndex is the similarity-search collaborator. Exists reports whether
// an index has been built at all; the answer pipeline checks it before
// dispatching to the document path.
type VectorIndex interface {
	Exists(ctx context.Context) bool
	Search(ctx context.Context, query string, k int) ([]domain.DocHit, error)
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error
}

// DocumentContent reads a bounded text preview of an indexed document.
// Best effort: returns "" on unreadable input.
type DocumentContent interface {
	Preview(ctx context.Context, path string, limit int) string
}

// WebSearcher issues a web search and returns ranked results.
type WebSearcher interface {
	Search(ctx context.Context, query string, pages int) ([]domain.WebHit, error)
}

// PageFetcher downloads a URL and extracts plain text from its HTML.
// Best effort: returns "" on any fetch or parse failure.
type PageFetcher interface {
	FetchText(ctx context.Context, url string, timeout time.Duration) string
}

// CompletionBackend performs one stateless completion call.
type CompletionBackend interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, model string) (domain.Completion, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// TraceSink receives the per-request trace record. Fire and forget: a sink
// failure must never fail the request.
type TraceSink interface {
	Record(event string, trace domain.TraceRecord)
}

// DocumentRepository persists document metadata and ingest state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveStats(ctx context.Context, id string, chunks, pages int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts page-attributed plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) ([]domain.PageText, error)
}

// Chunker splits extracted text into indexable chunks.
type Chunker interface {
	Split(pages []domain.PageText) []domain.Chunk
}
