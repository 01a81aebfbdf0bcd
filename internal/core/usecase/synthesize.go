package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ktanabe/askrag/internal/core/domain"
)

const defaultSystemPrompt = "You are an assistant that answers accurately and concisely. " +
	"Ground every statement in the provided evidence and say plainly when something is unknown."

const contextSeparator = "\n---\n"

type synthesisMeta struct {
	ms    int64
	usage *domain.TokenUsage
}

// synthesize performs exactly one stateless completion call over the
// budgeted contexts. No conversation history is carried between calls.
// A backend failure propagates to the caller; it is fatal to the request.
func (uc *AnswerUseCase) synthesize(ctx context.Context, contexts []string, query string) (string, synthesisMeta, error) {
	if len(contexts) > uc.opts.MaxContextChunks {
		contexts = contexts[:uc.opts.MaxContextChunks]
	}

	user := fmt.Sprintf(
		"Answer the question using only the context below. If the context is insufficient, state that the answer is unknown.\n\nQuestion:\n%s\n\nContext:\n%s",
		query,
		strings.Join(contexts, contextSeparator),
	)
	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: uc.opts.SystemPrompt},
		{Role: domain.RoleUser, Content: user},
	}

	completion, err := uc.completer.Complete(ctx, messages, uc.opts.LLMModel)
	if err != nil {
		return "", synthesisMeta{}, domain.WrapError(domain.ErrCompletion, "synthesize answer", err)
	}
	return completion.Text, synthesisMeta{ms: completion.ElapsedMs, usage: completion.Usage}, nil
}
