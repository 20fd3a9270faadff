package usecase

import (
	"math"
	"strings"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

const (
	imageScoreWeight   = 0.7
	captionScoreWeight = 0.3

	// Raw captions shorter than this and mentioning "Figure" are
	// treated as generic labels ("Figure 1") and rejected.
	genericCaptionMaxLen = 15
	minCaptionTokens     = 3
)

// validCaption rejects empty, too-short and generic figure-label
// captions. Rejection means a fallback caption must be generated.
func validCaption(caption string) bool {
	if caption == "" {
		return false
	}
	if len(strings.Fields(caption)) < minCaptionTokens {
		return false
	}
	if strings.Contains(caption, "Figure") && len(caption) < genericCaptionMaxLen {
		return false
	}
	return true
}

type linkReport struct {
	linked   int
	unlinked int
}

// linkImages records, for each image with an image embedding, its best
// matching chunk in the cross-modal space. Candidates are metadata
// filtered first (same page, or the owning section of any block that
// references the image), widening to a page window only when that set
// is empty. A link is recorded only when the best combined score
// strictly exceeds the threshold; staying below it is not an error.
func linkImages(images []*domain.ImageAsset, chunks []*domain.FineChunk, blocks []*domain.ParagraphBlock, threshold float64, pageWindow int) linkReport {
	sectionsByImage := make(map[string]map[string]struct{})
	for _, blk := range blocks {
		for _, imgID := range blk.ImageIDs {
			if sectionsByImage[imgID] == nil {
				sectionsByImage[imgID] = make(map[string]struct{})
			}
			sectionsByImage[imgID][blk.SectionID] = struct{}{}
		}
	}

	var report linkReport
	for _, img := range images {
		if len(img.EmbeddingImage) == 0 {
			continue
		}

		candidates := selectCandidates(img, chunks, sectionsByImage[img.ID], pageWindow)

		bestScore := math.Inf(-1)
		var best *domain.FineChunk
		hasCaption := len(img.EmbeddingCaption) > 0
		for _, chunk := range candidates {
			if len(chunk.EmbeddingCross) == 0 {
				continue
			}
			score := cosine(img.EmbeddingImage, chunk.EmbeddingCross)
			if hasCaption {
				score = imageScoreWeight*score + captionScoreWeight*cosine(img.EmbeddingCaption, chunk.EmbeddingCross)
			}
			if score > bestScore {
				bestScore = score
				best = chunk
			}
		}

		if best == nil || bestScore <= threshold {
			report.unlinked++
			continue
		}

		img.LinkedChunkID = best.ID
		img.MatchScore = bestScore
		best.LinkedImageIDs = appendUnique(best.LinkedImageIDs, img.ID)
		report.linked++
	}
	return report
}

func selectCandidates(img *domain.ImageAsset, chunks []*domain.FineChunk, owningSections map[string]struct{}, pageWindow int) []*domain.FineChunk {
	var out []*domain.FineChunk
	for _, chunk := range chunks {
		if chunk.MainPage == img.Page {
			out = append(out, chunk)
			continue
		}
		if owningSections != nil {
			if _, ok := owningSections[chunk.SectionID]; ok {
				out = append(out, chunk)
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, chunk := range chunks {
		diff := chunk.MainPage - img.Page
		if diff < 0 {
			diff = -diff
		}
		if diff <= pageWindow {
			out = append(out, chunk)
		}
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
