package ports

import (
	"context"
	"io"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

// DocumentRepository persists and reads document registry state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByContentHash(ctx context.Context, hash string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveCounts(ctx context.Context, id string, counts domain.ProcessingCounts) error
}

// ObjectStorage stores source documents and checks extracted assets.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	AssetExists(path string) bool
}

// StateStore persists the structured form of a processed document.
type StateStore interface {
	SaveState(ctx context.Context, docID string, state *domain.DocumentState) error
	LoadState(ctx context.Context, docID string) (*domain.DocumentState, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// StructureExtractor yields the flat structural-item stream of a stored
// document, plus its page count.
type StructureExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) ([]domain.StructureItem, int, error)
}

// TextSplitter splits concatenated section text into bounded pieces.
type TextSplitter interface {
	Split(text string) []string
}

// TextEmbedder produces semantic-retrieval vectors (text-only space).
type TextEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CrossModalEncoder produces vectors in the space shared by text and
// images. Implementations own a lazily initialized shared model and
// serialize heavy calls internally.
type CrossModalEncoder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, path string) ([]float32, error)
}

// CaptionGenerator produces a fallback caption for an image file.
// An empty string signals failure.
type CaptionGenerator interface {
	GenerateCaption(ctx context.Context, path string) (string, error)
}

// TextIndex is the text collection of the vector index service.
type TextIndex interface {
	InsertChunks(ctx context.Context, docID string, chunks []*domain.FineChunk) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.TextHit, error)
}

// ImageIndex is the image collection of the vector index service.
type ImageIndex interface {
	InsertImages(ctx context.Context, docID string, images []*domain.ImageAsset) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.ImageHit, error)
}

// AnswerGenerator creates the final user-facing answer from assembled context.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)
}
