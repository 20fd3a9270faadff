package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkuznetsov/docuvision/internal/core/domain"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

// ProcessConfig tunes the ingestion pipeline.
type ProcessConfig struct {
	LinkScoreThreshold float64
	LinkPageWindow     int
}

func (c ProcessConfig) normalize() ProcessConfig {
	out := c
	if out.LinkScoreThreshold == 0 {
		out.LinkScoreThreshold = 0.25
	}
	if out.LinkPageWindow <= 0 {
		out.LinkPageWindow = 1
	}
	return out
}

// ProcessDeps bundles the collaborators of the ingestion pipeline.
type ProcessDeps struct {
	Repo         ports.DocumentRepository
	Storage      ports.ObjectStorage
	States       ports.StateStore
	Extractor    ports.StructureExtractor
	Splitter     ports.TextSplitter
	TextEmbedder ports.TextEmbedder
	Encoder      ports.CrossModalEncoder
	Captioner    ports.CaptionGenerator
	TextIndex    ports.TextIndex
	ImageIndex   ports.ImageIndex
	Logger       *slog.Logger
}

type ProcessDocumentUseCase struct {
	deps ProcessDeps
	cfg  ProcessConfig
}

func NewProcessDocumentUseCase(deps ProcessDeps, cfg ProcessConfig) *ProcessDocumentUseCase {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &ProcessDocumentUseCase{deps: deps, cfg: cfg.normalize()}
}

// ProcessByID runs the full ingestion pipeline for one document as a
// single sequential pass: structure extraction, tree building, chunk
// segmentation, embedding, cross-modal linking, state persistence and
// index insertion. Failures local to one image or chunk are isolated;
// document-wide failures abort the pipeline and leave a persisted error
// marker on the registry record.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.deps.Repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	counts, err := uc.runPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.deps.Repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.deps.Repo.SaveCounts(ctx, documentID, counts); err != nil {
		return fmt.Errorf("save processing counts: %w", err)
	}
	if err := uc.deps.Repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) runPipeline(ctx context.Context, documentID string) (domain.ProcessingCounts, error) {
	log := uc.deps.Logger.With("doc_id", documentID)

	doc, err := uc.deps.Repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.ProcessingCounts{}, fmt.Errorf("fetch document by id: %w", err)
	}

	items, numPages, err := uc.deps.Extractor.Extract(ctx, doc)
	if err != nil {
		return domain.ProcessingCounts{}, domain.WrapError(domain.ErrExtraction, "extract structure", err)
	}
	if len(items) == 0 {
		return domain.ProcessingCounts{}, domain.WrapError(domain.ErrExtraction, "extract structure", errors.New("empty item stream"))
	}

	tree := buildSectionTree(doc.ID, items, numPages)
	chunks := segmentChunks(tree.sections, tree.blocks, uc.deps.Splitter)
	log.Info("structure_built",
		"sections", len(tree.sections),
		"blocks", len(tree.blocks),
		"images", len(tree.images),
		"chunks", len(chunks),
	)

	uc.embedImages(ctx, log, tree.images)
	uc.embedChunks(ctx, log, tree.sections, chunks)

	report := linkImages(tree.images, chunks, tree.blocks, uc.cfg.LinkScoreThreshold, uc.cfg.LinkPageWindow)
	log.Info("cross_modal_linking_done", "linked", report.linked, "unlinked", report.unlinked)

	state := &domain.DocumentState{
		DocumentID: doc.ID,
		Sections:   tree.sections,
		Blocks:     tree.blocks,
		Chunks:     chunks,
		Images:     tree.images,
	}
	if err := uc.deps.States.SaveState(ctx, doc.ID, state); err != nil {
		return domain.ProcessingCounts{}, fmt.Errorf("persist document state: %w", err)
	}

	// Index insertion is a separate persistence target: a failure here
	// leaves the document processed but not searchable until the index
	// recovers. The two writes can disagree on failure.
	if err := uc.deps.TextIndex.InsertChunks(ctx, doc.ID, chunks); err != nil {
		log.Warn("index_degraded", "collection", "text", "error", err)
	}
	if err := uc.deps.ImageIndex.InsertImages(ctx, doc.ID, tree.images); err != nil {
		log.Warn("index_degraded", "collection", "image", "error", err)
	}

	return domain.ProcessingCounts{
		NumPages:   numPages,
		ChunkCount: len(chunks),
		ImageCount: len(tree.images),
	}, nil
}

// embedImages applies the caption gate and computes cross-modal image
// and caption embeddings. Encoder failures are isolated per image: the
// image keeps an empty vector and drops out of matching and search.
func (uc *ProcessDocumentUseCase) embedImages(ctx context.Context, log *slog.Logger, images []*domain.ImageAsset) {
	for _, img := range images {
		if !uc.deps.Storage.AssetExists(img.FilePath) {
			log.Warn("missing_asset", "image_id", img.ID, "path", img.FilePath)
			continue
		}

		if validCaption(img.CaptionRaw) {
			img.CaptionFinal = img.CaptionRaw
			img.CaptionSource = domain.CaptionFromSource
		} else {
			img.CaptionSource = domain.CaptionGenerated
			generated, err := uc.deps.Captioner.GenerateCaption(ctx, img.FilePath)
			if err != nil {
				log.Warn("caption_generation_failed", "image_id", img.ID, "error", err)
				generated = ""
			}
			img.CaptionFinal = generated
		}

		vec, err := uc.deps.Encoder.EmbedImage(ctx, img.FilePath)
		if err != nil {
			log.Warn("encoding_failed", "kind", "image", "image_id", img.ID, "error", err)
			vec = nil
		}
		img.EmbeddingImage = vec

		if img.CaptionFinal != "" {
			capVec, err := uc.deps.Encoder.EmbedText(ctx, img.CaptionFinal)
			if err != nil {
				log.Warn("encoding_failed", "kind", "caption", "image_id", img.ID, "error", err)
				capVec = nil
			}
			img.EmbeddingCaption = capVec
		}
	}
}

// embedChunks computes the semantic-retrieval vector (section title
// prefixed for context) and the cross-modal vector of each chunk.
func (uc *ProcessDocumentUseCase) embedChunks(ctx context.Context, log *slog.Logger, sections []*domain.SectionNode, chunks []*domain.FineChunk) {
	titleBySection := make(map[string]string, len(sections))
	for _, section := range sections {
		titleBySection[section.ID] = section.Title
	}

	for _, chunk := range chunks {
		contextual := chunk.Content
		if title, ok := titleBySection[chunk.SectionID]; ok && title != "" {
			contextual = title + ": " + chunk.Content
		}

		vec, err := uc.deps.TextEmbedder.EmbedQuery(ctx, contextual)
		if err != nil {
			log.Warn("encoding_failed", "kind", "chunk_text", "chunk_id", chunk.ID, "error", err)
			vec = nil
		}
		chunk.EmbeddingText = vec

		crossVec, err := uc.deps.Encoder.EmbedText(ctx, chunk.Content)
		if err != nil {
			log.Warn("encoding_failed", "kind", "chunk_cross", "chunk_id", chunk.ID, "error", err)
			crossVec = nil
		}
		chunk.EmbeddingCross = crossVec
	}
}
