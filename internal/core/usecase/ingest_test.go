package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

type ingestRepoFake struct {
	created  *domain.Document
	existing *domain.Document
	gotHash  string
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.created = doc
	return nil
}
func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrDocumentNotFound
}
func (f *ingestRepoFake) GetByContentHash(_ context.Context, hash string) (*domain.Document, error) {
	f.gotHash = hash
	if f.existing == nil {
		return nil, domain.ErrDocumentNotFound
	}
	return f.existing, nil
}
func (f *ingestRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}
func (f *ingestRepoFake) SaveCounts(context.Context, string, domain.ProcessingCounts) error {
	return nil
}

type ingestStorageFake struct {
	savedKey   string
	deletedKey string
}

func (f *ingestStorageFake) Save(_ context.Context, key string, r io.Reader) error {
	f.savedKey = key
	_, err := io.Copy(io.Discard, r)
	return err
}
func (f *ingestStorageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}
func (f *ingestStorageFake) Delete(_ context.Context, key string) error {
	f.deletedKey = key
	return nil
}
func (f *ingestStorageFake) AssetExists(string) bool { return true }

type queueFake struct {
	published []string
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	f.published = append(f.published, documentID)
	return nil
}
func (f *queueFake) SubscribeDocumentIngested(context.Context, func(ctx context.Context, documentID string) error) error {
	return nil
}

func TestUploadCreatesAndPublishes(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &ingestStorageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue, nil)

	body := "pdf bytes here"
	doc, err := uc.Upload(context.Background(), "report final.pdf", "application/pdf", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", doc.Status)
	}
	if repo.created == nil || repo.created.ID != doc.ID {
		t.Fatalf("expected created record for %s", doc.ID)
	}
	sum := sha256.Sum256([]byte(body))
	if repo.created.ContentHash != hex.EncodeToString(sum[:]) {
		t.Fatalf("content hash mismatch: %s", repo.created.ContentHash)
	}
	if !strings.HasPrefix(storage.savedKey, doc.ID) || strings.Contains(storage.savedKey, " ") {
		t.Fatalf("unexpected storage key %q", storage.savedKey)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected one ingestion event for %s, got %v", doc.ID, queue.published)
	}
}

func TestUploadDedupReturnsExistingReadyDocument(t *testing.T) {
	existing := &domain.Document{ID: "doc-prev", Status: domain.StatusReady}
	repo := &ingestRepoFake{existing: existing}
	storage := &ingestStorageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue, nil)

	doc, err := uc.Upload(context.Background(), "same.pdf", "application/pdf", strings.NewReader("identical bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID != "doc-prev" {
		t.Fatalf("expected dedup hit to return existing document, got %s", doc.ID)
	}
	if repo.created != nil {
		t.Fatalf("dedup hit must not create a new record")
	}
	if len(queue.published) != 0 {
		t.Fatalf("dedup hit must not enqueue processing")
	}
	if storage.deletedKey != storage.savedKey || storage.deletedKey == "" {
		t.Fatalf("dedup hit must remove the freshly saved object, saved %q deleted %q",
			storage.savedKey, storage.deletedKey)
	}
}

func TestUploadReprocessesWhenDuplicateNotReady(t *testing.T) {
	existing := &domain.Document{ID: "doc-prev", Status: domain.StatusFailed}
	repo := &ingestRepoFake{existing: existing}
	storage := &ingestStorageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue, nil)

	doc, err := uc.Upload(context.Background(), "same.pdf", "application/pdf", strings.NewReader("identical bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID == "doc-prev" {
		t.Fatalf("failed duplicate must be re-ingested as a new document")
	}
	if len(queue.published) != 1 {
		t.Fatalf("expected ingestion event for re-ingested document")
	}
	if storage.deletedKey != "" {
		t.Fatalf("re-ingest must keep the stored object, deleted %q", storage.deletedKey)
	}
}
