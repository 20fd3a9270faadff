package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

// blockSeparator joins consecutive blocks of one section; the separator
// belongs to the span of the block preceding it.
const blockSeparator = "\n\n"

type blockSpan struct {
	start    int
	end      int
	blockID  string
	imageIDs []string
	page     int
}

// segmentChunks re-segments each section's concatenated block text into
// bounded pieces with exact span provenance. The output is fully
// deterministic for identical inputs and splitter parameters: chunk ids
// are UUIDv5 over (section id, piece index) and all id sets are sorted.
func segmentChunks(sections []*domain.SectionNode, blocks []*domain.ParagraphBlock, splitter ports.TextSplitter) []*domain.FineChunk {
	blockByID := make(map[string]*domain.ParagraphBlock, len(blocks))
	for _, blk := range blocks {
		blockByID[blk.ID] = blk
	}

	var chunks []*domain.FineChunk
	for _, section := range sections {
		if len(section.BlockIDs) == 0 {
			continue
		}

		var sb strings.Builder
		spans := make([]blockSpan, 0, len(section.BlockIDs))
		offset := 0
		for _, bid := range section.BlockIDs {
			blk, ok := blockByID[bid]
			if !ok {
				continue
			}
			piece := blk.Content + blockSeparator
			spans = append(spans, blockSpan{
				start:    offset,
				end:      offset + len(piece),
				blockID:  bid,
				imageIDs: blk.ImageIDs,
				page:     blk.Page,
			})
			sb.WriteString(piece)
			offset += len(piece)
		}

		sectionText := sb.String()
		if strings.TrimSpace(sectionText) == "" {
			continue
		}

		// Forward search handles repeated substrings: each piece is
		// located starting just after the previous match.
		searchFrom := 0
		pieceIndex := 0
		for _, piece := range splitter.Split(sectionText) {
			rel := strings.Index(sectionText[searchFrom:], piece)
			if rel < 0 {
				continue
			}
			start := searchFrom + rel
			end := start + len(piece)
			searchFrom = start + 1

			blockIDs := make(map[string]struct{})
			imageIDs := make(map[string]struct{})
			pages := make(map[int]struct{})
			for _, sp := range spans {
				if sp.start < end && sp.end > start {
					blockIDs[sp.blockID] = struct{}{}
					for _, id := range sp.imageIDs {
						imageIDs[id] = struct{}{}
					}
					pages[sp.page] = struct{}{}
				}
			}

			mainPage := section.PageStart
			if len(pages) > 0 {
				mainPage = minPage(pages)
			}

			// Proximity expansion: every image in this section sharing
			// the chunk's main page is attached, span overlap or not.
			for _, sp := range spans {
				if sp.page != mainPage {
					continue
				}
				for _, id := range sp.imageIDs {
					imageIDs[id] = struct{}{}
				}
			}

			chunks = append(chunks, &domain.FineChunk{
				ID:             chunkID(section.ID, pieceIndex),
				DocumentID:     section.DocumentID,
				MainPage:       mainPage,
				SectionID:      section.ID,
				BlockIDs:       sortedSet(blockIDs),
				Content:        piece,
				ImageIDs:       sortedSet(imageIDs),
				LinkedImageIDs: []string{},
			})
			pieceIndex++
		}
	}
	return chunks
}

func chunkID(sectionID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", sectionID, index))).String()
}

func minPage(pages map[int]struct{}) int {
	first := true
	min := 0
	for p := range pages {
		if first || p < min {
			min = p
			first = false
		}
	}
	return min
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
