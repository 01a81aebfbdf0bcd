package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ktanabe/askrag/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type processRepoFake struct {
	doc           *domain.Document
	getErr        error
	statsErr      error
	failStatusErr error
	statusCalls   []statusCall
	statsID       string
	statsChunks   int
	statsPages    int
}

func (f *processRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *processRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *processRepoFake) List(context.Context) ([]domain.Document, error) { return nil, nil }

func (f *processRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	return nil
}

func (f *processRepoFake) SaveStats(_ context.Context, id string, chunks, pages int) error {
	if f.statsErr != nil {
		return f.statsErr
	}
	f.statsID = id
	f.statsChunks = chunks
	f.statsPages = pages
	return nil
}

type extractorFake struct {
	pages []domain.PageText
	err   error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) ([]domain.PageText, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

type chunkerFake struct {
	chunks []domain.Chunk
}

func (f *chunkerFake) Split([]domain.PageText) []domain.Chunk { return f.chunks }

type embedderFake struct {
	vectors [][]float32
	err     error
}

func (f *embedderFake) Embed(context.Context, []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) { return nil, nil }

type indexWriteFake struct {
	err    error
	chunks []domain.Chunk
}

func (f *indexWriteFake) Exists(context.Context) bool { return true }

func (f *indexWriteFake) Search(context.Context, string, int) ([]domain.DocHit, error) {
	return nil, nil
}

func (f *indexWriteFake) IndexChunks(_ context.Context, _ *domain.Document, chunks []domain.Chunk, _ [][]float32) error {
	if f.err != nil {
		return f.err
	}
	f.chunks = chunks
	return nil
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	index := &indexWriteFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{pages: []domain.PageText{{Page: 1, Text: "one"}, {Page: 2, Text: "two"}}},
		&chunkerFake{chunks: []domain.Chunk{{Ordinal: 0, Page: 1, Text: "a"}, {Ordinal: 1, Page: 2, Text: "b"}}},
		&embedderFake{vectors: [][]float32{{1}, {2}}},
		index,
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected 2 status calls, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[0].status != domain.StatusProcessing || repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if len(index.chunks) != 2 {
		t.Fatalf("expected 2 indexed chunks, got %d", len(index.chunks))
	}
	if repo.statsID != "doc-1" || repo.statsChunks != 2 || repo.statsPages != 2 {
		t.Fatalf("unexpected stats: id=%s chunks=%d pages=%d", repo.statsID, repo.statsChunks, repo.statsPages)
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{err: errors.New("extract fail")},
		&chunkerFake{chunks: []domain.Chunk{{Text: "a"}}},
		&embedderFake{vectors: [][]float32{{1}}},
		&indexWriteFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected processing + failed status updates, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls[1])
	}
	if repo.statusCalls[1].errMsg == "" {
		t.Fatalf("expected failure cause recorded on the row")
	}
}

func TestProcessByIDMarksFailedOnVectorMismatch(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{pages: []domain.PageText{{Page: 1, Text: "text"}}},
		&chunkerFake{chunks: []domain.Chunk{{Text: "a"}, {Text: "b"}}},
		&embedderFake{vectors: [][]float32{{1}}},
		&indexWriteFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}

func TestCountPagesIgnoresUnnumberedPages(t *testing.T) {
	pages := []domain.PageText{{Page: 1}, {Page: 1}, {Page: 2}, {Page: 0}}
	if got := countPages(pages); got != 2 {
		t.Fatalf("expected 2 distinct pages, got %d", got)
	}
}
