package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

const (
	defaultTopK        = 5
	maxSnippetLen      = 1000
	maxContextCaption  = 300
	fallbackAnswerText = "I could not find any relevant information in the uploaded documents."

	answerSystemInstruction = "You are an expert document analysis assistant. " +
		"You have access to text snippets and descriptions of images extracted from documents. " +
		"Answer the user's question only from the provided context. " +
		"If an image helps explain the answer, explicitly mention 'Relevant Image Found: [caption]' quoting its caption. " +
		"Do not state facts that are not present in the context."
)

type QueryUseCase struct {
	textEmbedder ports.TextEmbedder
	encoder      ports.CrossModalEncoder
	textIndex    ports.TextIndex
	imageIndex   ports.ImageIndex
	generator    ports.AnswerGenerator
	defaultLimit int
}

func NewQueryUseCase(
	textEmbedder ports.TextEmbedder,
	encoder ports.CrossModalEncoder,
	textIndex ports.TextIndex,
	imageIndex ports.ImageIndex,
	generator ports.AnswerGenerator,
) *QueryUseCase {
	return &QueryUseCase{
		textEmbedder: textEmbedder,
		encoder:      encoder,
		textIndex:    textIndex,
		imageIndex:   imageIndex,
		generator:    generator,
	}
}

// WithDefaultLimit overrides the top-K applied when a request does not
// specify one.
func (uc *QueryUseCase) WithDefaultLimit(limit int) *QueryUseCase {
	if limit > 0 {
		uc.defaultLimit = limit
	}
	return uc
}

// Answer embeds the query in both spaces, merges independent text and
// image searches and assembles grounded context for generation. With no
// hits in either collection it short-circuits to a fixed fallback
// answer without calling the generation service.
func (uc *QueryUseCase) Answer(ctx context.Context, question string, limit int) (*domain.Answer, error) {
	if limit <= 0 {
		limit = uc.defaultLimit
	}
	if limit <= 0 {
		limit = defaultTopK
	}

	textVector, err := uc.textEmbedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query (text space): %w", err)
	}
	crossVector, err := uc.encoder.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query (cross-modal space): %w", err)
	}

	textHits, err := uc.textIndex.Search(ctx, textVector, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "search text collection", err)
	}
	imageHits, err := uc.imageIndex.Search(ctx, crossVector, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "search image collection", err)
	}

	if len(textHits) == 0 && len(imageHits) == 0 {
		return &domain.Answer{
			Text:      fallbackAnswerText,
			TextHits:  []domain.TextHit{},
			ImageHits: []domain.ImageHit{},
			Sources:   []string{},
		}, nil
	}

	prompt := fmt.Sprintf("Context:\n%s\nQuestion: %s", assembleContext(textHits, imageHits), question)
	answerText, err := uc.generator.Generate(ctx, prompt, answerSystemInstruction)
	if err != nil {
		return nil, domain.WrapError(domain.ErrGeneration, "generate answer", err)
	}

	return &domain.Answer{
		Text:      answerText,
		TextHits:  textHits,
		ImageHits: imageHits,
		Stats: domain.RetrievalStats{
			TextCount:  len(textHits),
			ImageCount: len(imageHits),
		},
		Sources: collectSources(textHits, imageHits),
	}, nil
}

// assembleContext lists numbered text snippets followed by numbered
// image captions. Image context is caption-only: linked chunk text is
// never expanded here.
func assembleContext(textHits []domain.TextHit, imageHits []domain.ImageHit) string {
	var sb strings.Builder
	if len(textHits) > 0 {
		sb.WriteString("--- TEXT CONTEXT ---\n")
		for i, hit := range textHits {
			sb.WriteString(fmt.Sprintf("Snippet %d: %s\n\n", i+1, truncate(hit.Text, maxSnippetLen)))
		}
	}
	if len(imageHits) > 0 {
		sb.WriteString("--- IMAGE CONTEXT ---\n")
		for i, hit := range imageHits {
			sb.WriteString(fmt.Sprintf("Image %d: Found a relevant image containing '%s'.\n", i+1, truncate(hit.Caption, maxContextCaption)))
		}
	}
	return sb.String()
}

func collectSources(textHits []domain.TextHit, imageHits []domain.ImageHit) []string {
	seen := make(map[string]struct{}, len(textHits)+len(imageHits))
	out := make([]string, 0, len(textHits)+len(imageHits))
	add := func(docID string) {
		if docID == "" {
			return
		}
		if _, ok := seen[docID]; ok {
			return
		}
		seen[docID] = struct{}{}
		out = append(out, docID)
	}
	for _, hit := range textHits {
		add(hit.DocumentID)
	}
	for _, hit := range imageHits {
		add(hit.DocumentID)
	}
	return out
}
