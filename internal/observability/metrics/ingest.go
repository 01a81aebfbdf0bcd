package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IngestMetrics tracks the document ingest pipeline: dequeue lag, the
// extract-chunk-embed-index run as a whole, and the size of what each
// document contributed to the index. The service name is a constant label
// so call sites never repeat it.
type IngestMetrics struct {
	registry *prometheus.Registry

	documentsTotal  *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	dequeueLag      prometheus.Histogram
	chunksIndexed   prometheus.Histogram
	pagesExtracted  prometheus.Histogram
}

func NewIngestMetrics(service string) *IngestMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "askrag",
			Subsystem:   "ingest",
			Name:        "documents_total",
			Help:        "Documents that finished the ingest pipeline, by final status.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "askrag",
			Subsystem:   "ingest",
			Name:        "duration_seconds",
			Help:        "Wall time of one extract, chunk, embed and index run.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "askrag",
			Subsystem:   "ingest",
			Name:        "in_flight",
			Help:        "Documents currently being processed.",
			ConstLabels: constLabels,
		},
	)
	dequeueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "askrag",
			Subsystem:   "ingest",
			Name:        "dequeue_lag_seconds",
			Help:        "Delay between document upload and the worker picking it up.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: constLabels,
		},
	)
	chunksIndexed := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "askrag",
			Subsystem:   "ingest",
			Name:        "chunks_per_document",
			Help:        "Chunks written to the vector index per document.",
			Buckets:     []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
			ConstLabels: constLabels,
		},
	)
	pagesExtracted := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "askrag",
			Subsystem:   "ingest",
			Name:        "pages_per_document",
			Help:        "Pages extracted per document; page-less formats count zero.",
			Buckets:     []float64{1, 2, 5, 10, 20, 50, 100, 200},
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(documentsTotal, processDuration, inFlight, dequeueLag, chunksIndexed, pagesExtracted)

	return &IngestMetrics{
		registry:        registry,
		documentsTotal:  documentsTotal,
		processDuration: processDuration,
		inFlight:        inFlight,
		dequeueLag:      dequeueLag,
		chunksIndexed:   chunksIndexed,
		pagesExtracted:  pagesExtracted,
	}
}

func (m *IngestMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IngestMetrics) DequeueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.dequeueLag.Observe(lag.Seconds())
}

func (m *IngestMetrics) ProcessStarted() {
	m.inFlight.Inc()
}

// ProcessFinished records one completed run. Outcome is the document's
// final status, ready or failed.
func (m *IngestMetrics) ProcessFinished(outcome string, duration time.Duration) {
	m.inFlight.Dec()
	m.documentsTotal.WithLabelValues(outcome).Inc()
	m.processDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *IngestMetrics) DocumentIndexed(chunks, pages int) {
	m.chunksIndexed.Observe(float64(chunks))
	m.pagesExtracted.Observe(float64(pages))
}
