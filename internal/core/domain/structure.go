package domain

type ElementType string

const (
	ElementParagraph ElementType = "paragraph"
	ElementList      ElementType = "list"
	ElementTable     ElementType = "table"
	ElementImage     ElementType = "image"
)

// StructureItem is one element of the flat stream produced by a
// structure extractor: a label, optional text, optional image payload
// and page provenance. Items are consumed once, in document order.
type StructureItem struct {
	Label     string    `json:"label"`
	Text      string    `json:"text,omitempty"`
	Page      int       `json:"page"`
	ImagePath string    `json:"image_path,omitempty"`
	BBox      []float64 `json:"bbox,omitempty"`
}

// HasImage reports whether the item carries an image payload.
func (it StructureItem) HasImage() bool {
	return it.ImagePath != ""
}

type SectionNode struct {
	ID          string   `json:"section_id"`
	DocumentID  string   `json:"doc_id"`
	Title       string   `json:"title"`
	Level       int      `json:"level"`
	PageStart   int      `json:"page_start"`
	PageEnd     int      `json:"page_end"`
	ParentID    string   `json:"parent_section_id,omitempty"`
	ChildIDs    []string `json:"child_section_ids"`
	BlockIDs    []string `json:"block_ids"`
	Summary     string   `json:"summary,omitempty"`
}

// ParagraphBlock is immutable once emitted; block order within a
// section is insertion order and defines concatenation order for
// chunking.
type ParagraphBlock struct {
	ID          string      `json:"block_id"`
	DocumentID  string      `json:"doc_id"`
	Page        int         `json:"page"`
	SectionID   string      `json:"section_id"`
	ElementType ElementType `json:"element_type"`
	Content     string      `json:"content"`
	ImageIDs    []string    `json:"image_ids"`
}

type CaptionSource string

const (
	CaptionFromSource CaptionSource = "source"
	CaptionGenerated  CaptionSource = "generated"
)

// ImageAsset is mutated only by the cross-modal linking stage after
// creation. EmbeddingImage and EmbeddingCaption live in the shared
// cross-modal space and must never be compared with text-retrieval
// vectors.
type ImageAsset struct {
	ID               string        `json:"image_id"`
	DocumentID       string        `json:"doc_id"`
	Page             int           `json:"page"`
	FilePath         string        `json:"file_path"`
	BBox             []float64     `json:"bbox,omitempty"`
	CaptionRaw       string        `json:"caption_raw,omitempty"`
	CaptionFinal     string        `json:"caption_final,omitempty"`
	CaptionSource    CaptionSource `json:"caption_source,omitempty"`
	EmbeddingImage   []float32     `json:"embedding_image,omitempty"`
	EmbeddingCaption []float32     `json:"embedding_caption,omitempty"`
	LinkedChunkID    string        `json:"linked_chunk_id,omitempty"`
	MatchScore       float64       `json:"match_score,omitempty"`
}

// FineChunk carries exact provenance back to the blocks, pages and
// images it was segmented from. EmbeddingText is the semantic-retrieval
// vector, EmbeddingCross the cross-modal one; LinkedImageIDs accumulates
// link bookkeeping and is only ever appended to.
type FineChunk struct {
	ID             string    `json:"chunk_id"`
	DocumentID     string    `json:"doc_id"`
	MainPage       int       `json:"main_page"`
	SectionID      string    `json:"section_id"`
	BlockIDs       []string  `json:"block_ids"`
	Content        string    `json:"content"`
	ImageIDs       []string  `json:"image_ids"`
	EmbeddingText  []float32 `json:"embedding_text,omitempty"`
	EmbeddingCross []float32 `json:"embedding_cross,omitempty"`
	LinkedImageIDs []string  `json:"linked_image_ids,omitempty"`
}

// DocumentState is the persisted structured form of one processed
// document. The document owns all four collections; chunks and images
// reference each other by id only, so a dangling id is tolerated.
type DocumentState struct {
	DocumentID string            `json:"doc_id"`
	Sections   []*SectionNode    `json:"sections"`
	Blocks     []*ParagraphBlock `json:"blocks"`
	Chunks     []*FineChunk      `json:"chunks"`
	Images     []*ImageAsset     `json:"images"`
}
