package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/ktanabe/askrag/internal/config"
	"github.com/ktanabe/askrag/internal/core/ports"
	"github.com/ktanabe/askrag/internal/core/usecase"
	"github.com/ktanabe/askrag/internal/infrastructure/chunking"
	"github.com/ktanabe/askrag/internal/infrastructure/fetch/webpage"
	"github.com/ktanabe/askrag/internal/infrastructure/llm/openai"
	"github.com/ktanabe/askrag/internal/infrastructure/queue/nats"
	"github.com/ktanabe/askrag/internal/infrastructure/repository/postgres"
	"github.com/ktanabe/askrag/internal/infrastructure/resilience"
	"github.com/ktanabe/askrag/internal/infrastructure/search/serp"
	"github.com/ktanabe/askrag/internal/infrastructure/storage/localfs"
	"github.com/ktanabe/askrag/internal/infrastructure/vector/qdrant"
	"github.com/ktanabe/askrag/internal/observability/metrics"
	"github.com/ktanabe/askrag/internal/observability/tracelog"
)

// App wires configuration into the full service graph. The api and worker
// binaries share it; the mcp binary uses NewAnswerOnly instead because it
// needs neither postgres nor the queue.
type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	AnswerUC  ports.AnswerService
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	ReaderUC  ports.DocumentReader

	HTTPMetrics *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	runner := resilience.NewRunner(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{Runner: runner})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(service)

	pipeline, err := buildAnswerPipeline(cfg, runner, answerSinks(httpMetrics, service))
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		AnswerUC:  pipeline.answerUC,
		IngestUC:  usecase.NewIngestDocumentUseCase(repo, pipeline.storage, queue),
		ProcessUC: usecase.NewProcessDocumentUseCase(repo, pipeline.library, chunker, pipeline.embedder, pipeline.index),
		ReaderUC:  usecase.NewReadDocumentsUseCase(repo),

		HTTPMetrics: httpMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// NewAnswerOnly builds just the question-answering pipeline. Used by the
// stdio MCP binary, which exposes ask and nothing else.
func NewAnswerOnly(cfg config.Config) (ports.AnswerService, error) {
	runner := resilience.NewRunner(resilience.DefaultPolicy())
	pipeline, err := buildAnswerPipeline(cfg, runner, tracelog.NewSink(nil))
	if err != nil {
		return nil, err
	}
	return pipeline.answerUC, nil
}

type answerPipeline struct {
	answerUC ports.AnswerService
	storage  *localfs.Storage
	library  *localfs.Library
	embedder ports.Embedder
	index    ports.VectorIndex
}

func buildAnswerPipeline(cfg config.Config, runner *resilience.Runner, sink ports.TraceSink) (*answerPipeline, error) {
	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	library := localfs.NewLibrary(storage)

	llmClient := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, runner)
	completer := openai.NewCompleter(llmClient)
	embedder := openai.NewEmbedder(llmClient, cfg.EmbedModel)

	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, embedder, cfg.ScoreThreshold)
	searcher := serp.New(cfg.SerpBaseURL, cfg.SerpAPIKey, runner)
	fetcher := webpage.New(cfg.FetchRPS, cfg.FetchBurst)

	answerUC := usecase.NewAnswerUseCase(index, library, searcher, fetcher, completer, sink, usecase.Options{
		TopK:               cfg.RAGTopK,
		MaxContextChunks:   cfg.MaxContextChunks,
		MaxCharsPerChunk:   cfg.MaxCharsPerChunk,
		DocContextChars:    cfg.DocContextChars,
		WebContextChars:    cfg.WebContextChars,
		HybridMergeLimit:   cfg.HybridMergeLimit,
		HybridContextChars: cfg.HybridContextChars,
		FetchTimeout:       time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		Threshold:          cfg.ScoreThreshold,
		EmbedModel:         cfg.EmbedModel,
		LLMModel:           cfg.LLMModel,
		DebugTrace:         cfg.DebugTrace,
	})

	return &answerPipeline{
		answerUC: answerUC,
		storage:  storage,
		library:  library,
		embedder: embedder,
		index:    index,
	}, nil
}

func answerSinks(m *metrics.HTTPServerMetrics, service string) ports.TraceSink {
	return traceFanout{
		tracelog.NewSink(nil),
		&metricsTraceSink{metrics: m, service: service},
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
