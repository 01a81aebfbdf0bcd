package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ktanabe/askrag/internal/infrastructure/resilience"
)

// Client is a thin OpenAI-compatible HTTP client shared by the completion
// and embedding adapters.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	runner     *resilience.Runner
}

func New(baseURL, apiKey string, runner *resilience.Runner) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		runner:     runner,
	}
}

func (c *Client) post(ctx context.Context, operation, path string, payload, out any) error {
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, path, payload, out, operation)
	}
	if c.runner == nil {
		return call(ctx)
	}
	err := c.runner.Run(ctx, operation, call, classifyOpenAIError)
	return wrapTemporaryIfNeeded(operation, err)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *usagePayload `json:"usage"`
}

type usagePayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *Client) chat(ctx context.Context, req chatRequest) (chatResponse, error) {
	var resp chatResponse
	if err := c.post(ctx, "chat_completion", "/chat/completions", req, &resp); err != nil {
		return chatResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return chatResponse{}, fmt.Errorf("chat completion returned no choices")
	}
	return resp, nil
}

func (c *Client) embeddings(ctx context.Context, model string, input []string) ([][]float32, error) {
	var resp embeddingsResponse
	if err := c.post(ctx, "embeddings", "/embeddings", embeddingsRequest{Model: model, Input: input}, &resp); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
