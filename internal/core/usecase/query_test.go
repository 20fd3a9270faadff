package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

type generatorFake struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
	lastSystem string
}

func (f *generatorFake) Generate(_ context.Context, prompt, systemInstruction string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastSystem = systemInstruction
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type limitRecordingTextIndex struct {
	textIndexFake
	lastLimit int
}

func (f *limitRecordingTextIndex) Search(ctx context.Context, vec []float32, limit int) ([]domain.TextHit, error) {
	f.lastLimit = limit
	return f.textIndexFake.Search(ctx, vec, limit)
}

type limitRecordingImageIndex struct {
	imageIndexFake
	lastLimit int
}

func (f *limitRecordingImageIndex) Search(ctx context.Context, vec []float32, limit int) ([]domain.ImageHit, error) {
	f.lastLimit = limit
	return f.imageIndexFake.Search(ctx, vec, limit)
}

func newQueryFixture() (*QueryUseCase, *limitRecordingTextIndex, *limitRecordingImageIndex, *generatorFake) {
	textIndex := &limitRecordingTextIndex{}
	imageIndex := &limitRecordingImageIndex{}
	generator := &generatorFake{answer: "The revenue grew in Q3."}
	uc := NewQueryUseCase(
		&textEmbedderFake{vec: []float32{0.1, 0.2}},
		&encoderFake{textVec: []float32{0.3, 0.4}},
		textIndex,
		imageIndex,
		generator,
	)
	return uc, textIndex, imageIndex, generator
}

func TestAnswerAssemblesContextAndSources(t *testing.T) {
	uc, textIndex, imageIndex, generator := newQueryFixture()
	textIndex.hits = []domain.TextHit{
		{ChunkID: "c-1", DocumentID: "doc-a", Score: 0.9, Text: "Revenue grew 14% in Q3."},
		{ChunkID: "c-2", DocumentID: "doc-b", Score: 0.7, Text: "Costs were flat."},
	}
	imageIndex.hits = []domain.ImageHit{
		{ImageID: "img-1", DocumentID: "doc-a", Score: 0.8, Caption: "a bar chart of quarterly revenue"},
	}

	answer, err := uc.Answer(context.Background(), "How did revenue change?", 0)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Text != "The revenue grew in Q3." {
		t.Fatalf("unexpected answer text %q", answer.Text)
	}
	if generator.calls != 1 {
		t.Fatalf("expected one generation call, got %d", generator.calls)
	}
	if !strings.Contains(generator.lastPrompt, "--- TEXT CONTEXT ---") ||
		!strings.Contains(generator.lastPrompt, "Snippet 2: Costs were flat.") {
		t.Fatalf("text context missing from prompt:\n%s", generator.lastPrompt)
	}
	if !strings.Contains(generator.lastPrompt, "Found a relevant image containing 'a bar chart of quarterly revenue'.") {
		t.Fatalf("image context missing from prompt:\n%s", generator.lastPrompt)
	}
	if !strings.Contains(generator.lastPrompt, "Question: How did revenue change?") {
		t.Fatalf("question missing from prompt:\n%s", generator.lastPrompt)
	}
	if generator.lastSystem == "" {
		t.Fatalf("expected system instruction to be forwarded")
	}
	if len(answer.Sources) != 2 || answer.Sources[0] != "doc-a" || answer.Sources[1] != "doc-b" {
		t.Fatalf("expected deduplicated ordered sources, got %v", answer.Sources)
	}
	if answer.Stats.TextCount != 2 || answer.Stats.ImageCount != 1 {
		t.Fatalf("unexpected stats %+v", answer.Stats)
	}
}

func TestAnswerFallbackWithoutGeneration(t *testing.T) {
	uc, _, _, generator := newQueryFixture()

	answer, err := uc.Answer(context.Background(), "Anything about dolphins?", 5)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Text != fallbackAnswerText {
		t.Fatalf("expected fallback answer, got %q", answer.Text)
	}
	if generator.calls != 0 {
		t.Fatalf("empty retrieval must not reach the generator")
	}
	if answer.TextHits == nil || answer.ImageHits == nil || answer.Sources == nil {
		t.Fatalf("fallback answer must carry empty, non-nil result slices")
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources, got %v", answer.Sources)
	}
}

func TestAnswerDefaultsTopK(t *testing.T) {
	uc, textIndex, imageIndex, _ := newQueryFixture()
	textIndex.hits = []domain.TextHit{{ChunkID: "c-1", DocumentID: "doc-a", Text: "x"}}

	if _, err := uc.Answer(context.Background(), "q", -3); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if textIndex.lastLimit != defaultTopK || imageIndex.lastLimit != defaultTopK {
		t.Fatalf("expected default limit %d on both searches, got text=%d image=%d",
			defaultTopK, textIndex.lastLimit, imageIndex.lastLimit)
	}
}

func TestAnswerIndexOutage(t *testing.T) {
	uc, textIndex, _, _ := newQueryFixture()
	textIndex.searchErr = errors.New("connection refused")

	_, err := uc.Answer(context.Background(), "q", 5)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected index-unavailable kind, got %v", err)
	}
}

func TestAnswerGenerationFailurePropagates(t *testing.T) {
	uc, textIndex, _, generator := newQueryFixture()
	textIndex.hits = []domain.TextHit{{ChunkID: "c-1", DocumentID: "doc-a", Text: "x"}}
	generator.err = errors.New("model unavailable")

	_, err := uc.Answer(context.Background(), "q", 5)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected generation kind, got %v", err)
	}
}

func TestAnswerEmbeddingFailureIsFatal(t *testing.T) {
	uc := NewQueryUseCase(
		&textEmbedderFake{err: errors.New("embedder down")},
		&encoderFake{},
		&textIndexFake{},
		&imageIndexFake{},
		&generatorFake{},
	)
	if _, err := uc.Answer(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected error when the query cannot be embedded")
	}
}
