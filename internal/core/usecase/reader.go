package usecase

import (
	"context"
	"fmt"

	"github.com/ktanabe/askrag/internal/core/domain"
	"github.com/ktanabe/askrag/internal/core/ports"
)

// ReadDocumentsUseCase exposes document metadata to the API layer.
type ReadDocumentsUseCase struct {
	repo ports.DocumentRepository
}

func NewReadDocumentsUseCase(repo ports.DocumentRepository) *ReadDocumentsUseCase {
	return &ReadDocumentsUseCase{repo: repo}
}

func (uc *ReadDocumentsUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ReadDocumentsUseCase) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}
