package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

// Selector routes a document to the right structure extractor by file
// extension. When a conversion service is configured it takes PDFs and
// every format the local extractors cannot handle; otherwise PDFs fall
// back to plain per-page text extraction.
type Selector struct {
	service  ports.StructureExtractor
	markdown ports.StructureExtractor
	pdf      ports.StructureExtractor
	plain    ports.StructureExtractor
}

func NewSelector(service, markdown, pdf, plain ports.StructureExtractor) *Selector {
	return &Selector{
		service:  service,
		markdown: markdown,
		pdf:      pdf,
		plain:    plain,
	}
}

func (s *Selector) Extract(ctx context.Context, doc *domain.Document) ([]domain.StructureItem, int, error) {
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	switch ext {
	case ".md", ".markdown":
		return s.markdown.Extract(ctx, doc)
	case ".txt":
		return s.plain.Extract(ctx, doc)
	case ".pdf":
		if s.service != nil {
			return s.service.Extract(ctx, doc)
		}
		return s.pdf.Extract(ctx, doc)
	default:
		if s.service != nil {
			return s.service.Extract(ctx, doc)
		}
		return nil, 0, fmt.Errorf("%w: unsupported file extension %q", domain.ErrInvalidInput, ext)
	}
}

// Supported reports whether an upload with this filename can be
// processed by the current extractor setup.
func (s *Selector) Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown", ".txt":
		return true
	case ".pdf":
		return true
	default:
		return s.service != nil
	}
}
