package ports

import (
	"context"
	"io"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentQueryService is the inbound contract for hybrid retrieval and answering.
type DocumentQueryService interface {
	Answer(ctx context.Context, question string, limit int) (*domain.Answer, error)
}

// DocumentReader is the inbound read model for document metadata and state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
