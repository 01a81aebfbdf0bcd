package domain

const (
	TraceSchemaVersion = 1

	// PromptPlaceholder is what steps.prompt always carries. The raw prompt
	// never enters a trace in the default configuration.
	PromptPlaceholder = "[hidden]"
)

// Failover annotations for hybrid mode.
const (
	FailoverDocToWeb = "doc→web"
	FailoverWebToDoc = "web→doc"
)

type TraceParams struct {
	Mode       Mode    `json:"mode"`
	TopK       int     `json:"top_k"`
	Threshold  float64 `json:"threshold"`
	EmbedModel string  `json:"embed_model"`
	LLMModel   string  `json:"llm_model"`
}

type TraceTiming struct {
	RetrievalMsDoc *int64 `json:"retrieval_ms_doc,omitempty"`
	RetrievalMsWeb *int64 `json:"retrieval_ms_web,omitempty"`
	LLMMs          int64  `json:"llm_ms"`
	TotalMs        int64  `json:"total_ms"`
}

type TraceSteps struct {
	Query          string      `json:"query"`
	DocHits        []DocHit    `json:"doc_hits"`
	WebHits        []WebHit    `json:"web_hits"`
	ContextPreview []string    `json:"context_preview"`
	Prompt         string      `json:"prompt"`
	Usage          *TokenUsage `json:"usage,omitempty"`
	Failover       string      `json:"failover,omitempty"`
}

// TraceRecord is the per-request diagnostic snapshot. It is built fresh for
// every request, emitted once to the trace sink and never cached.
type TraceRecord struct {
	SchemaVersion int         `json:"schema_version"`
	TraceID       string      `json:"trace_id"`
	Params        TraceParams `json:"params"`
	Timing        TraceTiming `json:"timing"`
	Steps         TraceSteps  `json:"steps"`
}

func NewTraceRecord(traceID string, params TraceParams, query string) TraceRecord {
	return TraceRecord{
		SchemaVersion: TraceSchemaVersion,
		TraceID:       traceID,
		Params:        params,
		Steps: TraceSteps{
			Query:          query,
			DocHits:        []DocHit{},
			WebHits:        []WebHit{},
			ContextPreview: []string{},
			Prompt:         PromptPlaceholder,
		},
	}
}
