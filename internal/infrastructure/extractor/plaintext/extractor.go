package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

// Extractor turns a stored UTF-8 text file into a flat stream of
// paragraph items, one per blank-line separated block.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) ([]domain.StructureItem, int, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, 0, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, 0, fmt.Errorf("read source document: %w", err)
	}

	if !utf8.Valid(raw) {
		return nil, 0, fmt.Errorf("%w: %s is not valid utf-8 text", domain.ErrInvalidInput, doc.Filename)
	}

	var items []domain.StructureItem
	for _, block := range strings.Split(string(raw), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		items = append(items, domain.StructureItem{
			Label: "paragraph",
			Text:  block,
			Page:  1,
		})
	}
	return items, 1, nil
}
