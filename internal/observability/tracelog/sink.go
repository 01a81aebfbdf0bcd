package tracelog

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ktanabe/askrag/internal/core/domain"
)

// Sink emits trace records as structured log events. Recording is fire
// and forget: serialization problems are logged and swallowed so the
// answer path never notices.
type Sink struct {
	logger *slog.Logger
}

func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

func (s *Sink) Record(event string, trace domain.TraceRecord) {
	raw, err := json.Marshal(trace)
	if err != nil {
		s.logger.Warn("trace_marshal_failed", "trace_id", trace.TraceID, "error", err)
		return
	}

	s.logger.LogAttrs(context.Background(), slog.LevelInfo, event,
		slog.String("trace_id", trace.TraceID),
		slog.String("mode", string(trace.Params.Mode)),
		slog.Int64("total_ms", trace.Timing.TotalMs),
		slog.Any("trace", json.RawMessage(raw)),
	)
}
