package qdrant

import (
	"context"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

// TextClient stores chunk vectors in the semantic text collection.
type TextClient struct {
	collectionClient
}

func NewTextClient(baseURL, collection string) *TextClient {
	return &TextClient{collectionClient: newCollectionClient(baseURL, collection)}
}

// InsertChunks upserts every chunk that carries a text embedding.
// Chunks whose embedding failed are left out rather than poisoning the
// collection with zero vectors.
func (c *TextClient) InsertChunks(ctx context.Context, documentID string, chunks []*domain.FineChunk) error {
	points := make([]point, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.EmbeddingText) == 0 {
			continue
		}
		points = append(points, point{
			ID:     chunk.ID,
			Vector: chunk.EmbeddingText,
			Payload: map[string]any{
				"doc_id":           documentID,
				"text":             chunk.Content,
				"section_id":       chunk.SectionID,
				"main_page":        chunk.MainPage,
				"linked_image_ids": chunk.LinkedImageIDs,
			},
		})
	}
	return c.upsert(ctx, points)
}

func (c *TextClient) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.TextHit, error) {
	result, err := c.search(ctx, queryVector, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TextHit, 0, len(result))
	for _, r := range result {
		out = append(out, domain.TextHit{
			ChunkID:        pointID(r.ID),
			DocumentID:     getStringPayload(r.Payload, "doc_id"),
			Score:          r.Score,
			Text:           getStringPayload(r.Payload, "text"),
			SectionID:      getStringPayload(r.Payload, "section_id"),
			MainPage:       getIntPayload(r.Payload, "main_page"),
			LinkedImageIDs: getStringSlicePayload(r.Payload, "linked_image_ids"),
		})
	}
	return out, nil
}
