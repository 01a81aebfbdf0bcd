package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ktanabe/askrag/internal/core/domain"
)

const answerNoWebResult = "No usable web result was found for this question."

// runWebPath answers from one page of live web search. A failed fetch of a
// single result is absorbed: the result is dropped, never the request.
func (uc *AnswerUseCase) runWebPath(ctx context.Context, query string) (pathResult, error) {
	var res pathResult

	begin := time.Now()
	results, err := uc.searcher.Search(ctx, query, 1)
	if err != nil {
		return res, fmt.Errorf("web search: %w", err)
	}
	res.searched = true

	if len(results) > uc.opts.TopK {
		results = results[:uc.opts.TopK]
	}

	kept := make([]domain.WebHit, 0, len(results))
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		text := uc.fetcher.FetchText(ctx, r.URL, uc.opts.FetchTimeout)
		if text == "" {
			continue
		}
		kept = append(kept, r)
		blocks = append(blocks, truncateRunes(text, uc.opts.WebContextChars))
	}
	res.retrievalMs = time.Since(begin).Milliseconds()

	res.webHits = kept
	res.sources = summarizeSources(nil, kept)

	contexts := BuildContext(blocks, uc.opts.MaxContextChunks, uc.opts.MaxCharsPerChunk)
	if len(contexts) == 0 {
		res.answer = answerNoWebResult
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
