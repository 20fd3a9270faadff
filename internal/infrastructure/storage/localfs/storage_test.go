package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

func TestStorageSaveOpenRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := s.Save(ctx, "doc-1/source.pdf", strings.NewReader("content")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	r, err := s.Open(ctx, "doc-1/source.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	raw, _ := io.ReadAll(r)
	if string(raw) != "content" {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestStorageDelete(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := s.Save(ctx, "doc-1/source.pdf", strings.NewReader("content")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Delete(ctx, "doc-1/source.pdf"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Open(ctx, "doc-1/source.pdf"); err == nil {
		t.Fatal("expected deleted object to be gone")
	}
	if err := s.Delete(ctx, "doc-1/source.pdf"); err != nil {
		t.Fatalf("deleting an absent key must not fail, got %v", err)
	}
}

func TestAssetExists(t *testing.T) {
	base := t.TempDir()
	s, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Save(context.Background(), "doc-1/images/a.png", strings.NewReader("png")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !s.AssetExists("doc-1/images/a.png") {
		t.Fatalf("expected relative asset to exist")
	}
	if !s.AssetExists(filepath.Join(base, "doc-1/images/a.png")) {
		t.Fatalf("expected absolute asset to exist")
	}
	if s.AssetExists("doc-1/images/missing.png") {
		t.Fatalf("missing asset must not exist")
	}
	if s.AssetExists("") {
		t.Fatalf("empty path must not exist")
	}
	if s.AssetExists("doc-1/images") {
		t.Fatalf("directory must not count as an asset")
	}
}

func TestStateStoreRoundTripAndAtomicity(t *testing.T) {
	base := t.TempDir()
	store, err := NewStateStore(base)
	if err != nil {
		t.Fatalf("NewStateStore() error = %v", err)
	}
	ctx := context.Background()

	state := &domain.DocumentState{
		DocumentID: "doc-1",
		Sections: []*domain.SectionNode{
			{ID: "s-1", DocumentID: "doc-1", Title: "Intro", Level: 1, PageStart: 1, PageEnd: 2},
		},
		Chunks: []*domain.FineChunk{
			{ID: "c-1", DocumentID: "doc-1", SectionID: "s-1", Content: "hello", LinkedImageIDs: []string{}},
		},
	}
	if err := store.SaveState(ctx, "doc-1", state); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	loaded, err := store.LoadState(ctx, "doc-1")
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if loaded.DocumentID != "doc-1" || len(loaded.Sections) != 1 || loaded.Chunks[0].Content != "hello" {
		t.Fatalf("unexpected state %+v", loaded)
	}

	// A rewrite must replace, not append, and leave no temp files.
	if err := store.SaveState(ctx, "doc-1", state); err != nil {
		t.Fatalf("SaveState() rewrite error = %v", err)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "doc-1.json" {
		t.Fatalf("unexpected state dir contents %v", entries)
	}
}

func TestStateStoreLoadMissing(t *testing.T) {
	store, err := NewStateStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStateStore() error = %v", err)
	}
	_, err = store.LoadState(context.Background(), "nope")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
