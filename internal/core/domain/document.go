package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document tracks one uploaded file through the ingest pipeline.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	Chunks      int            `json:"chunks"`
	Pages       int            `json:"pages"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PageText is extracted text attributed to a page. Page 0 means the source
// format has no page notion.
type PageText struct {
	Page int
	Text string
}

// Chunk is one indexable slice of a document.
type Chunk struct {
	Ordinal int
	Page    int
	Text    string
}
