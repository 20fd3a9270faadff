package pdftext

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

// Extractor pulls plain text out of a PDF page by page. It yields one
// text item per page and no pictures; it backs deployments without a
// conversion sidecar.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) ([]domain.StructureItem, int, error) {
	source, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, 0, fmt.Errorf("open source document: %w", err)
	}
	defer source.Close()

	// The pdf library needs a ReadSeeker with a known size.
	tmp, err := os.CreateTemp("", "docuvision-pdf-*.pdf")
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, source); err != nil {
		tmp.Close()
		return nil, 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, 0, fmt.Errorf("close temp file: %w", err)
	}

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	items := make([]domain.StructureItem, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		items = append(items, domain.StructureItem{
			Label: "text",
			Text:  pageText,
			Page:  i,
		})
	}
	return items, numPages, nil
}
