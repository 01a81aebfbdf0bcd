package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ktanabe/askrag/internal/core/domain"
	"github.com/ktanabe/askrag/internal/core/ports"
)

// Options bound every stage of the answer pipeline. Zero values fall back
// to the defaults the service ships with.
type Options struct {
	TopK             int
	MaxContextChunks int
	MaxCharsPerChunk int

	// PreviewPerSource caps per-source trace previews, PreviewCombined the
	// deduplicated combined list.
	PreviewPerSource int
	PreviewCombined  int

	// Per-document context caps for the doc and web paths, and the tighter
	// cap used by the hybrid re-read.
	DocContextChars    int
	WebContextChars    int
	HybridMergeLimit   int
	HybridContextChars int

	FetchTimeout time.Duration
	Threshold    float64
	EmbedModel   string
	LLMModel     string
	SystemPrompt string

	// DebugTrace is the process-wide gate: callers get a trace echoed back
	// only when they ask for it and this flag is on.
	DebugTrace bool
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.MaxContextChunks <= 0 {
		o.MaxContextChunks = 8
	}
	if o.MaxCharsPerChunk <= 0 {
		o.MaxCharsPerChunk = 3000
	}
	if o.PreviewPerSource <= 0 {
		o.PreviewPerSource = 3
	}
	if o.PreviewCombined <= 0 {
		o.PreviewCombined = 6
	}
	if o.DocContextChars <= 0 {
		o.DocContextChars = 3000
	}
	if o.WebContextChars <= 0 {
		o.WebContextChars = 3000
	}
	if o.HybridMergeLimit <= 0 {
		o.HybridMergeLimit = 6
	}
	if o.HybridContextChars <= 0 {
		o.HybridContextChars = 1500
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 10 * time.Second
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = defaultSystemPrompt
	}
	return o
}

// AnswerUseCase is the mode orchestrator: it dispatches to the retrieval
// paths, merges hybrid evidence, assembles the trace record and emits it
// exactly once per request.
type AnswerUseCase struct {
	index     ports.VectorIndex
	content   ports.DocumentContent
	searcher  ports.WebSearcher
	fetcher   ports.PageFetcher
	completer ports.CompletionBackend
	sink      ports.TraceSink
	opts      Options
}

func NewAnswerUseCase(
	index ports.VectorIndex,
	content ports.DocumentContent,
	searcher ports.WebSearcher,
	fetcher ports.PageFetcher,
	completer ports.CompletionBackend,
	sink ports.TraceSink,
	opts Options,
) *AnswerUseCase {
	return &AnswerUseCase{
		index:     index,
		content:   content,
		searcher:  searcher,
		fetcher:   fetcher,
		completer: completer,
		sink:      sink,
		opts:      opts.withDefaults(),
	}
}

// pathResult is the accumulator each retrieval path returns. The
// orchestrator merges these values instead of threading shared mutable
// state through the call chain.
type pathResult struct {
	answer       string
	docHits      []domain.DocHit
	webHits      []domain.WebHit
	sources      []domain.Source
	retrievalMs  int64
	llmMs        int64
	usage        *domain.TokenUsage
	indexMissing bool
	searched     bool
}

func (uc *AnswerUseCase) Answer(ctx context.Context, query string, mode domain.Mode, debug bool) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrEmptyQuery, "answer", errors.New("query must not be blank"))
	}
	switch mode {
	case domain.ModeDoc, domain.ModeWeb, domain.ModeHybrid:
	default:
		return nil, domain.WrapError(domain.ErrInvalidMode, "answer", errors.New("mode must be doc, web or hybrid"))
	}

	start := time.Now()
	trace := domain.NewTraceRecord(uuid.NewString(), domain.TraceParams{
		Mode:       mode,
		TopK:       uc.opts.TopK,
		Threshold:  uc.opts.Threshold,
		EmbedModel: uc.opts.EmbedModel,
		LLMModel:   uc.opts.LLMModel,
	}, query)

	var docRes, webRes pathResult
	var err error

	switch mode {
	case domain.ModeDoc:
		docRes, err = uc.runDocPath(ctx, query)
	case domain.ModeWeb:
		webRes, err = uc.runWebPath(ctx, query)
	case domain.ModeHybrid:
		docRes, err = uc.runDocPath(ctx, query)
		if err == nil {
			webRes, err = uc.runWebPath(ctx, query)
		}
	}

	answer := docRes.answer
	sources := docRes.sources
	llmMs := docRes.llmMs + webRes.llmMs
	usage := docRes.usage
	if webRes.usage != nil {
		usage = webRes.usage
	}

	if mode == domain.ModeWeb {
		answer = webRes.answer
		sources = webRes.sources
	}

	if err == nil && mode == domain.ModeHybrid {
		sources = append(append([]domain.Source{}, docRes.sources...), webRes.sources...)

		var meta synthesisMeta
		answer, meta, err = uc.mergeHybrid(ctx, query, docRes, webRes, sources)
		llmMs += meta.ms
		if meta.usage != nil {
			usage = meta.usage
		}

		trace.Steps.Failover = classifyFailover(docRes.docHits, webRes.webHits)
	}

	uc.finishTrace(&trace, mode, docRes, webRes, llmMs, usage, start)
	uc.emitTrace(trace)

	if err != nil {
		return nil, err
	}

	payload := &domain.Answer{Text: answer, Sources: sources}
	if payload.Sources == nil {
		payload.Sources = []domain.Source{}
	}
	if debug && uc.opts.DebugTrace {
		payload.Trace = &trace
	}
	return payload, nil
}

// mergeHybrid re-derives a fresh merged context from the first
// HybridMergeLimit combined sources and runs one extra synthesis call over
// it, overwriting the per-path answers. When nothing usable comes back the
// two per-path answers are concatenated as a degraded fallback.
//
// The re-fetch doubles network cost against content both paths already
// pulled; kept for output compatibility with the existing pipeline.
func (uc *AnswerUseCase) mergeHybrid(
	ctx context.Context,
	query string,
	docRes, webRes pathResult,
	sources []domain.Source,
) (string, synthesisMeta, error) {
	merged := sources
	if len(merged) > uc.opts.HybridMergeLimit {
		merged = merged[:uc.opts.HybridMergeLimit]
	}

	blocks := make([]string, 0, len(merged))
	for _, s := range merged {
		switch {
		case s.Kind == domain.SourceWeb && s.URL != "":
			if text := uc.fetcher.FetchText(ctx, s.URL, uc.opts.FetchTimeout); text != "" {
				blocks = append(blocks, truncateRunes(text, uc.opts.HybridContextChars))
			}
		case s.Kind == domain.SourceDoc && s.Path != "":
			blocks = append(blocks, uc.content.Preview(ctx, s.Path, uc.opts.HybridContextChars))
		}
	}

	contexts := BuildContext(blocks, uc.opts.MaxContextChunks, uc.opts.MaxCharsPerChunk)
	if len(contexts) == 0 {
		return docRes.answer + "\n\n" + webRes.answer, synthesisMeta{}, nil
	}
	return uc.synthesize(ctx, contexts, query)
}

// classifyFailover reports which evidence source silently came up empty
// while the other delivered. Both-empty and both-present are not failover.
func classifyFailover(docHits []domain.DocHit, webHits []domain.WebHit) string {
	switch {
	case len(docHits) == 0 && len(webHits) > 0:
		return domain.FailoverDocToWeb
	case len(webHits) == 0 && len(docHits) > 0:
		return domain.FailoverWebToDoc
	default:
		return ""
	}
}

func (uc *AnswerUseCase) finishTrace(
	trace *domain.TraceRecord,
	mode domain.Mode,
	docRes, webRes pathResult,
	llmMs int64,
	usage *domain.TokenUsage,
	start time.Time,
) {
	if docRes.docHits != nil {
		trace.Steps.DocHits = docRes.docHits
	}
	if webRes.webHits != nil {
		trace.Steps.WebHits = webRes.webHits
	}

	previews := buildDocPreviews(trace.Steps.DocHits, uc.opts.PreviewPerSource)
	previews = append(previews, buildWebPreviews(trace.Steps.WebHits, uc.opts.PreviewPerSource)...)
	trace.Steps.ContextPreview = dedupPreviews(previews, uc.opts.PreviewCombined)
	trace.Steps.Usage = usage

	if (mode == domain.ModeDoc || mode == domain.ModeHybrid) && !docRes.indexMissing {
		ms := docRes.retrievalMs
		trace.Timing.RetrievalMsDoc = &ms
	}
	if (mode == domain.ModeWeb || mode == domain.ModeHybrid) && webRes.searched {
		ms := webRes.retrievalMs
		trace.Timing.RetrievalMsWeb = &ms
	}
	trace.Timing.LLMMs = llmMs
	trace.Timing.TotalMs = time.Since(start).Milliseconds()
}

// emitTrace hands the trace to the sink. Observability must never break
// the user-facing path, so even a panicking sink is contained here.
func (uc *AnswerUseCase) emitTrace(trace domain.TraceRecord) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("trace_sink_panic", "trace_id", trace.TraceID, "panic", r)
		}
	}()
	uc.sink.Record("rag_answer", trace)
}
