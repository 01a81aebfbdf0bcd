package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	answerIndexMissing = "The document index has not been built yet. Upload and ingest documents before asking in doc mode."
	answerNoDocument   = "No matching document was found for this question."
)

// runDocPath answers from the local document index. A missing index is a
// normal degraded state, not an error: it yields the fixed apology answer
// without touching the completion backend.
func (uc *AnswerUseCase) runDocPath(ctx context.Context, query string) (pathResult, error) {
	var res pathResult

	if !uc.index.Exists(ctx) {
		res.answer = answerIndexMissing
		res.indexMissing = true
		return res, nil
	}

	begin := time.Now()
	hits, err := uc.index.Search(ctx, query, uc.opts.TopK)
	if err != nil {
		return res, fmt.Errorf("search document index: %w", err)
	}
	res.retrievalMs = time.Since(begin).Milliseconds()

	// Storage may hand back OS-specific separators; traces and sources must
	// be identical across environments.
	for i := range hits {
		hits[i].Path = strings.ReplaceAll(hits[i].Path, `\`, "/")
	}
	res.docHits = hits

	head := hits
	if len(head) > uc.opts.PreviewPerSource {
		head = head[:uc.opts.PreviewPerSource]
	}
	res.sources = summarizeSources(head, nil)

	blocks := make([]string, 0, len(head))
	for _, h := range head {
		blocks = append(blocks, uc.content.Preview(ctx, h.Path, uc.opts.DocContextChars))
	}

	contexts := BuildContext(blocks, uc.opts.MaxContextChunks, uc.opts.MaxCharsPerChunk)
	if len(contexts) == 0 {
		res.answer = answerNoDocument
		return res, nil
	}

	text, meta, err := uc.synthesize(ctx, contexts, query)
	if err != nil {
		return res, err
	}
	res.answer = text
	res.llmMs = meta.ms
	res.usage = meta.usage
	return res, nil
}
