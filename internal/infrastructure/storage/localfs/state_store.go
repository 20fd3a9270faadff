package localfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

// StateStore persists the structured form of a processed document
// (sections, blocks, chunks, images) as one JSON file per document.
// Writes go through a temp file and rename, so readers never observe a
// half-written state.
type StateStore struct {
	basePath string
}

func NewStateStore(basePath string) (*StateStore, error) {
	if basePath == "" {
		basePath = "./data/state"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &StateStore{basePath: basePath}, nil
}

func (s *StateStore) SaveState(_ context.Context, documentID string, state *domain.DocumentState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document state: %w", err)
	}

	final := s.statePath(documentID)
	tmp, err := os.CreateTemp(s.basePath, documentID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *StateStore) LoadState(_ context.Context, documentID string) (*domain.DocumentState, error) {
	raw, err := os.ReadFile(s.statePath(documentID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state domain.DocumentState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal document state: %w", err)
	}
	return &state, nil
}

func (s *StateStore) statePath(documentID string) string {
	return filepath.Join(s.basePath, documentID+".json")
}
