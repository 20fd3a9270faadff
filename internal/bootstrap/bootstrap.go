package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkuznetsov/docuvision/internal/config"
	"github.com/mkuznetsov/docuvision/internal/core/ports"
	"github.com/mkuznetsov/docuvision/internal/core/usecase"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/chunking"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/encoder/siglip"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/extractor"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/extractor/docling"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/extractor/markdown"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/extractor/pdftext"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/extractor/plaintext"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/llm/ollama"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/queue/nats"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/repository/postgres"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/resilience"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/storage/localfs"
	"github.com/mkuznetsov/docuvision/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	States    ports.StateStore
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	QueryUC   ports.DocumentQueryService

	// Supported reports whether a filename routes to a configured extractor.
	Supported func(filename string) bool

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	states, err := localfs.NewStateStore(cfg.StoragePath + "/state")
	if err != nil {
		return nil, fmt.Errorf("init state store: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 200 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		RetryMultiplier:     2,
		BreakerEnabled:      true,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.6,
		BreakerOpenTimeout:  10 * time.Second,
	}).WithLogger(logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).WithExecutor(executor)
	textEmbedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	encoder := siglip.New(cfg.EncoderURL)

	var service ports.StructureExtractor
	if cfg.DoclingURL != "" {
		service = docling.New(cfg.DoclingURL, storage)
	}
	selector := extractor.NewSelector(service, markdown.New(storage), pdftext.New(storage), plaintext.New(storage))

	textIndex := qdrant.NewTextClient(cfg.QdrantURL, cfg.QdrantTextCollection)
	imageIndex := qdrant.NewImageClient(cfg.QdrantURL, cfg.QdrantImageCollection)
	splitter := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue, logger)
	processUC := usecase.NewProcessDocumentUseCase(usecase.ProcessDeps{
		Repo:         repo,
		Storage:      storage,
		States:       states,
		Extractor:    selector,
		Splitter:     splitter,
		TextEmbedder: textEmbedder,
		Encoder:      encoder,
		Captioner:    encoder,
		TextIndex:    textIndex,
		ImageIndex:   imageIndex,
		Logger:       logger,
	}, usecase.ProcessConfig{
		LinkScoreThreshold: cfg.LinkScoreThreshold,
		LinkPageWindow:     cfg.LinkPageWindow,
	})
	queryUC := usecase.NewQueryUseCase(textEmbedder, encoder, textIndex, imageIndex, generator).
		WithDefaultLimit(cfg.RAGTopK)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,
		States: states,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,

		Supported: selector.Supported,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
