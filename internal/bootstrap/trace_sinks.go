package bootstrap

import (
	"time"

	"github.com/ktanabe/askrag/internal/core/domain"
	"github.com/ktanabe/askrag/internal/core/ports"
	"github.com/ktanabe/askrag/internal/observability/metrics"
)

// traceFanout delivers each trace to every registered sink.
type traceFanout []ports.TraceSink

func (f traceFanout) Record(event string, trace domain.TraceRecord) {
	for _, sink := range f {
		sink.Record(event, trace)
	}
}

// metricsTraceSink derives request metrics from the trace record. Failover
// direction and token usage only surface there, not in handler scope.
type metricsTraceSink struct {
	metrics *metrics.HTTPServerMetrics
	service string
}

func (s *metricsTraceSink) Record(_ string, trace domain.TraceRecord) {
	if s.metrics == nil {
		return
	}

	sources := len(trace.Steps.DocHits) + len(trace.Steps.WebHits)
	s.metrics.RecordAsk(s.service, string(trace.Params.Mode), sources, time.Duration(trace.Timing.TotalMs)*time.Millisecond)
	s.metrics.RecordFailover(s.service, trace.Steps.Failover)

	if usage := trace.Steps.Usage; usage != nil {
		s.metrics.RecordTokenUsage(s.service, trace.Params.LLMModel, usage.PromptTokens, usage.CompletionTokens)
	}
}
