package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

// Extractor parses Markdown into the flat structural-item stream using
// the goldmark AST. Markdown has no pagination, so everything lands on
// page 1.
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

	src, err := io.ReadAll(source)
	if err != nil {
		return nil, 0, fmt.Errorf("read source document: %w", err)
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var items []domain.StructureItem
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(node.Text(src)))
			if title == "" {
				continue
			}
			items = append(items, domain.StructureItem{
				Label: fmt.Sprintf("heading_%d", node.Level),
				Text:  title,
				Page:  1,
			})
		case *ast.List:
			for li := node.FirstChild(); li != nil; li = li.NextSibling() {
				items = append(items, imageItems(li, src)...)
				if t := blockText(li, src); t != "" {
					items = append(items, domain.StructureItem{
						Label: "list_item",
						Text:  t,
						Page:  1,
					})
				}
			}
		default:
			items = append(items, imageItems(n, src)...)
			if t := blockText(n, src); t != "" {
				items = append(items, domain.StructureItem{
					Label: "paragraph",
					Text:  t,
					Page:  1,
				})
			}
		}
	}
	return items, 1, nil
}

// imageItems collects the inline images anywhere under n as picture
// items carrying the destination path and the alt text.
func imageItems(n ast.Node, src []byte) []domain.StructureItem {
	var out []domain.StructureItem
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := child.(*ast.Image); ok {
			out = append(out, domain.StructureItem{
				Label:     "picture",
				Text:      strings.TrimSpace(string(img.Text(src))),
				Page:      1,
				ImagePath: string(img.Destination),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

// blockText renders the plain text of a block node, inline children
// included, image alt text excluded.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeText(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func writeText(buf *bytes.Buffer, n ast.Node, src []byte) {
	// Leaf blocks (code fences and the like) carry raw source lines;
	// everything else is rendered from its inline children.
	if n.FirstChild() == nil && n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch child := c.(type) {
		case *ast.Image:
			// Pictures are emitted as their own items.
		case *ast.Text:
			buf.Write(child.Value(src))
			if child.HardLineBreak() || child.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		default:
			writeText(buf, c, src)
		}
	}
}
