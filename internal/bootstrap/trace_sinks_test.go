package bootstrap

import (
	"testing"

	"github.com/ktanabe/askrag/internal/core/domain"
)

type captureSink struct {
	events []string
}

func (s *captureSink) Record(event string, _ domain.TraceRecord) {
	s.events = append(s.events, event)
}

func TestTraceFanoutDeliversToEverySink(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	fanout := traceFanout{first, second}

	fanout.Record("rag_answer", domain.NewTraceRecord("t-1", domain.TraceParams{Mode: domain.ModeDoc}, "q"))

	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("expected one delivery per sink, got %d and %d", len(first.events), len(second.events))
	}
	if first.events[0] != "rag_answer" {
		t.Fatalf("unexpected event %q", first.events[0])
	}
}

func TestMetricsTraceSinkToleratesNilMetrics(t *testing.T) {
	sink := &metricsTraceSink{service: "api"}
	sink.Record("rag_answer", domain.NewTraceRecord("t-2", domain.TraceParams{Mode: domain.ModeHybrid}, "q"))
}
