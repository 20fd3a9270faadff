package usecase

import (
	"math"
	"testing"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

func TestValidCaption(t *testing.T) {
	cases := []struct {
		caption string
		want    bool
	}{
		{"", false},
		{"Figure 1", false},
		{"two words", false},
		{"Figure 2 graph", false},            // mentions Figure, under 15 chars
		{"Figure 3: annual revenue", true},   // long enough to carry meaning
		{"a bar chart of quarterly revenue", true},
	}
	for _, tc := range cases {
		if got := validCaption(tc.caption); got != tc.want {
			t.Fatalf("validCaption(%q) = %v, want %v", tc.caption, got, tc.want)
		}
	}
}

func TestLinkImagesWeightedScoreAboveThreshold(t *testing.T) {
	// Image embedding identical to the chunk's cross-modal embedding
	// (cosine 1.0), caption embedding orthogonal (cosine 0.0):
	// combined = 0.7*1.0 + 0.3*0.0 = 0.7 > 0.25.
	chunk := &domain.FineChunk{
		ID:             "chunk-1",
		MainPage:       2,
		SectionID:      "sec-1",
		EmbeddingCross: []float32{1, 0},
		LinkedImageIDs: []string{},
	}
	img := &domain.ImageAsset{
		ID:               "img-1",
		Page:             2,
		EmbeddingImage:   []float32{1, 0},
		EmbeddingCaption: []float32{0, 1},
	}

	report := linkImages([]*domain.ImageAsset{img}, []*domain.FineChunk{chunk}, nil, 0.25, 1)

	if report.linked != 1 {
		t.Fatalf("expected 1 link, got %+v", report)
	}
	if img.LinkedChunkID != "chunk-1" {
		t.Fatalf("expected linked chunk chunk-1, got %q", img.LinkedChunkID)
	}
	if math.Abs(img.MatchScore-0.7) > 1e-9 {
		t.Fatalf("expected score 0.7, got %f", img.MatchScore)
	}
	if len(chunk.LinkedImageIDs) != 1 || chunk.LinkedImageIDs[0] != "img-1" {
		t.Fatalf("expected chunk to record img-1, got %v", chunk.LinkedImageIDs)
	}
}

func TestLinkImagesBelowThresholdRecordsNothing(t *testing.T) {
	chunk := &domain.FineChunk{
		ID:             "chunk-1",
		MainPage:       1,
		EmbeddingCross: []float32{1, 0},
		LinkedImageIDs: []string{},
	}
	// cosine = 0.2 with a unit vector mostly orthogonal.
	img := &domain.ImageAsset{
		ID:             "img-1",
		Page:           1,
		EmbeddingImage: []float32{0.2, float32(math.Sqrt(1 - 0.04))},
	}

	report := linkImages([]*domain.ImageAsset{img}, []*domain.FineChunk{chunk}, nil, 0.25, 1)

	if report.linked != 0 || report.unlinked != 1 {
		t.Fatalf("expected no link, got %+v", report)
	}
	if img.LinkedChunkID != "" || img.MatchScore != 0 {
		t.Fatalf("expected image untouched, got %+v", img)
	}
	if len(chunk.LinkedImageIDs) != 0 {
		t.Fatalf("expected no chunk-side bookkeeping, got %v", chunk.LinkedImageIDs)
	}
}

func TestLinkImagesExactThresholdIsNotALink(t *testing.T) {
	chunk := &domain.FineChunk{ID: "chunk-1", MainPage: 1, EmbeddingCross: []float32{1, 0}, LinkedImageIDs: []string{}}
	img := &domain.ImageAsset{
		ID:             "img-1",
		Page:           1,
		EmbeddingImage: []float32{0.25, float32(math.Sqrt(1 - 0.0625))},
	}

	linkImages([]*domain.ImageAsset{img}, []*domain.FineChunk{chunk}, nil, 0.25, 1)

	if img.LinkedChunkID != "" {
		t.Fatalf("score equal to threshold must not link, got %+v", img)
	}
}

func TestLinkImagesCandidateSelectionBySectionOfReferencingBlock(t *testing.T) {
	// Chunk on a different page but in the section whose block
	// references the image.
	sameSection := &domain.FineChunk{ID: "chunk-sec", MainPage: 9, SectionID: "sec-1", EmbeddingCross: []float32{1, 0}, LinkedImageIDs: []string{}}
	otherSection := &domain.FineChunk{ID: "chunk-other", MainPage: 9, SectionID: "sec-2", EmbeddingCross: []float32{1, 0}, LinkedImageIDs: []string{}}
	blocks := []*domain.ParagraphBlock{
		{ID: "b1", SectionID: "sec-1", ImageIDs: []string{"img-1"}},
	}
	img := &domain.ImageAsset{ID: "img-1", Page: 1, EmbeddingImage: []float32{1, 0}}

	linkImages([]*domain.ImageAsset{img}, []*domain.FineChunk{sameSection, otherSection}, blocks, 0.25, 1)

	if img.LinkedChunkID != "chunk-sec" {
		t.Fatalf("expected section-based candidate to win, got %q", img.LinkedChunkID)
	}
}

func TestLinkImagesPageWindowFallback(t *testing.T) {
	nearby := &domain.FineChunk{ID: "chunk-near", MainPage: 4, SectionID: "sec-9", EmbeddingCross: []float32{1, 0}, LinkedImageIDs: []string{}}
	far := &domain.FineChunk{ID: "chunk-far", MainPage: 8, SectionID: "sec-9", EmbeddingCross: []float32{1, 0}, LinkedImageIDs: []string{}}
	img := &domain.ImageAsset{ID: "img-1", Page: 5, EmbeddingImage: []float32{1, 0}}

	linkImages([]*domain.ImageAsset{img}, []*domain.FineChunk{nearby, far}, nil, 0.25, 1)

	if img.LinkedChunkID != "chunk-near" {
		t.Fatalf("expected page-window fallback candidate, got %q", img.LinkedChunkID)
	}
}

func TestLinkImagesSkipsImagesWithoutEmbedding(t *testing.T) {
	chunk := &domain.FineChunk{ID: "chunk-1", MainPage: 1, EmbeddingCross: []float32{1, 0}, LinkedImageIDs: []string{}}
	img := &domain.ImageAsset{ID: "img-1", Page: 1}

	report := linkImages([]*domain.ImageAsset{img}, []*domain.FineChunk{chunk}, nil, 0.25, 1)
	if report.linked != 0 || report.unlinked != 0 {
		t.Fatalf("embedding-less image must be excluded entirely, got %+v", report)
	}
}

func TestAppendUniqueIsIdempotent(t *testing.T) {
	ids := appendUnique([]string{"a"}, "a")
	if len(ids) != 1 {
		t.Fatalf("expected no duplicate, got %v", ids)
	}
	ids = appendUnique(ids, "b")
	if len(ids) != 2 {
		t.Fatalf("expected append of new id, got %v", ids)
	}
}

func TestCosineBounds(t *testing.T) {
	if got := cosine([]float32{1, 0}, []float32{-1, 0}); math.Abs(got+1) > 1e-9 {
		t.Fatalf("expected -1 for opposite vectors, got %f", got)
	}
	if got := cosine([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Fatalf("mismatched dimensionality must score 0, got %f", got)
	}
	if got := cosine(nil, nil); got != 0 {
		t.Fatalf("empty vectors must score 0, got %f", got)
	}
}
