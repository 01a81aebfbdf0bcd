package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrapeIngest(t *testing.T, m *IngestMetrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("scrape failed with %d", res.Code)
	}
	return res.Body.String()
}

func TestIngestMetricsRecordsPipelineRun(t *testing.T) {
	m := NewIngestMetrics("worker")

	m.DequeueLag(500 * time.Millisecond)
	m.ProcessStarted()
	m.ProcessFinished("ready", 2*time.Second)
	m.DocumentIndexed(12, 3)

	body := scrapeIngest(t, m)
	for _, want := range []string{
		`askrag_ingest_documents_total{outcome="ready",service="worker"} 1`,
		`askrag_ingest_dequeue_lag_seconds_count{service="worker"} 1`,
		`askrag_ingest_chunks_per_document_count{service="worker"} 1`,
		`askrag_ingest_pages_per_document_count{service="worker"} 1`,
		`askrag_ingest_in_flight{service="worker"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestIngestMetricsSeparatesOutcomes(t *testing.T) {
	m := NewIngestMetrics("worker")

	m.ProcessStarted()
	m.ProcessFinished("failed", time.Second)

	body := scrapeIngest(t, m)
	if !strings.Contains(body, `askrag_ingest_documents_total{outcome="failed",service="worker"} 1`) {
		t.Fatalf("failed outcome not counted:\n%s", body)
	}
	if strings.Contains(body, `outcome="ready"`) {
		t.Fatalf("ready series must not exist before a ready run:\n%s", body)
	}
}

func TestIngestMetricsIgnoresNegativeLag(t *testing.T) {
	m := NewIngestMetrics("worker")

	m.DequeueLag(-time.Second)

	body := scrapeIngest(t, m)
	if !strings.Contains(body, `askrag_ingest_dequeue_lag_seconds_count{service="worker"} 0`) {
		t.Fatalf("negative lag must not be observed:\n%s", body)
	}
}
