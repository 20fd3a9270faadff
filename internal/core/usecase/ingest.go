package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	logger  *slog.Logger
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *IngestDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		logger:  logger,
	}
}

// Upload stores the document, deduplicates by content hash and hands
// the rest of the pipeline to the background worker via the queue. A
// previously completed document with the same content short-circuits
// the upload and returns the existing record.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	hasher := sha256.New()
	if err := uc.storage.Save(ctx, storageKey, io.TeeReader(body, hasher)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	contentHash := hex.EncodeToString(hasher.Sum(nil))

	if existing, err := uc.repo.GetByContentHash(ctx, contentHash); err == nil && existing.Status == domain.StatusReady {
		// The blob was already streamed to storage under the new key;
		// drop it so dedup hits leave no orphaned object behind.
		if delErr := uc.storage.Delete(ctx, storageKey); delErr != nil {
			uc.logger.Warn("dedup_cleanup_failed", "storage_key", storageKey, "error", delErr)
		}
		uc.logger.Info("upload_dedup_hit", "doc_id", existing.ID, "content_hash", contentHash)
		return existing, nil
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		ContentHash: contentHash,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
