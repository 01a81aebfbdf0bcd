package openai

import (
	"context"
	"strings"
	"time"

	"github.com/ktanabe/askrag/internal/core/domain"
)

const completionTemperature = 0.2

// Completer adapts the chat completions endpoint to the answer pipeline.
type Completer struct {
	client *Client
}

func NewCompleter(client *Client) *Completer {
	return &Completer{client: client}
}

func (c *Completer) Complete(ctx context.Context, messages []domain.ChatMessage, model string) (domain.Completion, error) {
	payload := chatRequest{
		Model:       model,
		Temperature: completionTemperature,
		Messages:    make([]chatMessage, len(messages)),
	}
	for i, m := range messages {
		payload.Messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}

	begin := time.Now()
	resp, err := c.client.chat(ctx, payload)
	if err != nil {
		return domain.Completion{}, err
	}

	out := domain.Completion{
		Text:      strings.TrimSpace(resp.Choices[0].Message.Content),
		ElapsedMs: time.Since(begin).Milliseconds(),
	}
	if resp.Usage != nil {
		out.Usage = &domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}
