package mcpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ktanabe/askrag/internal/core/domain"
	"github.com/ktanabe/askrag/internal/core/ports"
)

// Handler exposes the answer pipeline as an MCP tool so agent hosts can
// call it over stdio.
type Handler struct {
	answerUC ports.AnswerService
}

func NewHandler(answerUC ports.AnswerService) *Handler {
	return &Handler{answerUC: answerUC}
}

func NewServer(answerUC ports.AnswerService, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"askrag",
		version,
		server.WithToolCapabilities(true),
	)
	NewHandler(answerUC).RegisterTools(s)
	return s
}

func (h *Handler) RegisterTools(s *server.MCPServer) {
	tool := mcp.NewTool("ask",
		mcp.WithDescription("Answer a question from indexed documents, live web search, or both. Returns the answer followed by its cited sources."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithString("mode", mcp.Description("Evidence sources: doc, web or hybrid (default doc)")),
	)
	s.AddTool(tool, h.handleAsk)
}

func (h *Handler) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("invalid arguments format, expected object"), nil
	}

	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	mode := domain.ModeDoc
	if raw, _ := args["mode"].(string); strings.TrimSpace(raw) != "" {
		parsed, err := domain.ParseMode(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		mode = parsed
	}

	answer, err := h.answerUC.Answer(ctx, query, mode, false)
	if err != nil {
		slog.Error("mcp_ask_failed", "mode", mode, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAnswer(answer)), nil
}

func formatAnswer(answer *domain.Answer) string {
	var b strings.Builder
	b.WriteString(answer.Text)

	if len(answer.Sources) == 0 {
		return b.String()
	}

	b.WriteString("\n\nSources:\n")
	for i, src := range answer.Sources {
		b.WriteString(fmt.Sprintf("%d. %s", i+1, src.Title))
		switch {
		case src.URL != "":
			b.WriteString(" <" + src.URL + ">")
		case src.Path != "":
			b.WriteString(" (" + src.Path)
			if src.Page != nil {
				b.WriteString(fmt.Sprintf(", p.%d", *src.Page))
			}
			b.WriteString(")")
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
