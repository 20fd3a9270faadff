package usecase

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

const maxSectionTitleLen = 200

type structureResult struct {
	sections []*domain.SectionNode
	blocks   []*domain.ParagraphBlock
	images   []*domain.ImageAsset
}

// buildSectionTree rebuilds the section hierarchy from the flat
// structural-item stream. The open ancestor path is an explicit stack of
// indices into the section arena; the input is flat, so nesting comes
// only from heading levels. Items with neither text nor an image payload
// are dropped.
func buildSectionTree(docID string, items []domain.StructureItem, numPages int) structureResult {
	if numPages < 1 {
		numPages = 1
	}

	root := &domain.SectionNode{
		ID:         uuid.NewString(),
		DocumentID: docID,
		Title:      "Root",
		Level:      0,
		PageStart:  1,
		PageEnd:    numPages,
		ChildIDs:   []string{},
		BlockIDs:   []string{},
	}
	sections := []*domain.SectionNode{root}
	stack := []int{0}

	blocks := make([]*domain.ParagraphBlock, 0, len(items))
	var images []*domain.ImageAsset

	for _, item := range items {
		label := strings.ToLower(strings.TrimSpace(item.Label))
		text := strings.TrimSpace(item.Text)

		if text == "" && !item.HasImage() {
			continue
		}

		if isHeadingLabel(label) && text != "" {
			level := headingLevel(label)
			for len(stack) > 1 && sections[stack[len(stack)-1]].Level >= level {
				stack = stack[:len(stack)-1]
			}
			parent := sections[stack[len(stack)-1]]

			node := &domain.SectionNode{
				ID:         uuid.NewString(),
				DocumentID: docID,
				Title:      truncate(text, maxSectionTitleLen),
				Level:      level,
				PageStart:  pageOrFirst(item.Page),
				PageEnd:    pageOrFirst(item.Page),
				ParentID:   parent.ID,
				ChildIDs:   []string{},
				BlockIDs:   []string{},
			}
			sections = append(sections, node)
			parent.ChildIDs = append(parent.ChildIDs, node.ID)
			stack = append(stack, len(sections)-1)
			continue
		}

		owner := sections[stack[len(stack)-1]]

		if item.HasImage() {
			img := &domain.ImageAsset{
				ID:         uuid.NewString(),
				DocumentID: docID,
				Page:       pageOrFirst(item.Page),
				FilePath:   item.ImagePath,
				BBox:       item.BBox,
				CaptionRaw: text,
			}
			images = append(images, img)

			blk := &domain.ParagraphBlock{
				ID:          uuid.NewString(),
				DocumentID:  docID,
				Page:        img.Page,
				SectionID:   owner.ID,
				ElementType: domain.ElementImage,
				Content:     fmt.Sprintf("[IMAGE: %s]", text),
				ImageIDs:    []string{img.ID},
			}
			blocks = append(blocks, blk)
			owner.BlockIDs = append(owner.BlockIDs, blk.ID)
			continue
		}

		blk := &domain.ParagraphBlock{
			ID:          uuid.NewString(),
			DocumentID:  docID,
			Page:        pageOrFirst(item.Page),
			SectionID:   owner.ID,
			ElementType: elementTypeForLabel(label),
			Content:     text,
			ImageIDs:    []string{},
		}
		blocks = append(blocks, blk)
		owner.BlockIDs = append(owner.BlockIDs, blk.ID)
	}

	return structureResult{sections: sections, blocks: blocks, images: images}
}

func isHeadingLabel(label string) bool {
	return strings.Contains(label, "header") || strings.Contains(label, "heading") || label == "title"
}

// headingLevel maps a heading label onto an integer depth. Coarser
// markers yield lower numbers; an undeterminable level defaults to the
// shallowest non-root level.
func headingLevel(label string) int {
	if n, ok := trailingNumber(label); ok && n >= 1 {
		return n
	}
	if label == "title" {
		return 1
	}
	if strings.Contains(label, "sub") {
		return 2
	}
	return 1
}

func trailingNumber(s string) (int, bool) {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n := 0
	for i := start; i < end; i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

func elementTypeForLabel(label string) domain.ElementType {
	switch {
	case strings.Contains(label, "list"):
		return domain.ElementList
	case strings.Contains(label, "table"):
		return domain.ElementTable
	default:
		return domain.ElementParagraph
	}
}

func pageOrFirst(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
