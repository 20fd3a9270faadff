package domain

// TextHit is one match from the text collection. LinkedImageIDs is
// informational link metadata carried from the index payload; the
// referenced images are not expanded here.
type TextHit struct {
	ChunkID        string   `json:"chunk_id"`
	DocumentID     string   `json:"document_id"`
	Score          float64  `json:"score"`
	Text           string   `json:"text"`
	SectionID      string   `json:"section_id,omitempty"`
	MainPage       int      `json:"main_page,omitempty"`
	LinkedImageIDs []string `json:"linked_image_ids,omitempty"`
}

// ImageHit is one match from the image collection. Context for image
// hits is caption-only: LinkedChunkID is available but its text is
// never fetched during retrieval.
type ImageHit struct {
	ImageID       string  `json:"image_id"`
	DocumentID    string  `json:"document_id"`
	Score         float64 `json:"score"`
	Path          string  `json:"path"`
	Caption       string  `json:"caption"`
	LinkedChunkID string  `json:"linked_chunk_id,omitempty"`
	MatchScore    float64 `json:"match_score,omitempty"`
}

type RetrievalStats struct {
	TextCount  int `json:"text_count"`
	ImageCount int `json:"image_count"`
}

type Answer struct {
	Text      string         `json:"text"`
	TextHits  []TextHit      `json:"text_hits"`
	ImageHits []ImageHit     `json:"image_hits"`
	Stats     RetrievalStats `json:"retrieval_stats"`
	Sources   []string       `json:"sources"`
}
