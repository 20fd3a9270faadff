package qdrant

import (
	"context"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
)

// ImageClient stores image vectors in the cross-modal collection.
type ImageClient struct {
	collectionClient
}

func NewImageClient(baseURL, collection string) *ImageClient {
	return &ImageClient{collectionClient: newCollectionClient(baseURL, collection)}
}

// InsertImages upserts every image that carries a visual embedding.
// Images whose encoding failed stay out of the collection.
func (c *ImageClient) InsertImages(ctx context.Context, documentID string, images []*domain.ImageAsset) error {
	points := make([]point, 0, len(images))
	for _, img := range images {
		if len(img.EmbeddingImage) == 0 {
			continue
		}
		points = append(points, point{
			ID:     img.ID,
			Vector: img.EmbeddingImage,
			Payload: map[string]any{
				"doc_id":          documentID,
				"path":            img.FilePath,
				"caption":         img.CaptionFinal,
				"page":            img.Page,
				"linked_chunk_id": img.LinkedChunkID,
				"match_score":     img.MatchScore,
			},
		})
	}
	return c.upsert(ctx, points)
}

func (c *ImageClient) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.ImageHit, error) {
	result, err := c.search(ctx, queryVector, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ImageHit, 0, len(result))
	for _, r := range result {
		out = append(out, domain.ImageHit{
			ImageID:       pointID(r.ID),
			DocumentID:    getStringPayload(r.Payload, "doc_id"),
			Score:         r.Score,
			Path:          getStringPayload(r.Payload, "path"),
			Caption:       getStringPayload(r.Payload, "caption"),
			LinkedChunkID: getStringPayload(r.Payload, "linked_chunk_id"),
			MatchScore:    getFloatPayload(r.Payload, "match_score"),
		})
	}
	return out, nil
}
