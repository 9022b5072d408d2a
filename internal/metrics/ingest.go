package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "djiarag",
			Name:      "ingest_documents_total",
			Help:      "Total number of documents written per partition",
		},
		[]string{"partition"},
	)

	IngestFetchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "djiarag",
			Name:      "ingest_fetch_failures_total",
			Help:      "Total per-ticker feed fetch failures",
		},
		[]string{"partition"},
	)

	CleanupFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "djiarag",
			Name:      "cleanup_failures_total",
			Help:      "Total swallowed retention-cleanup failures",
		},
		[]string{"partition"},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestDocumentsTotal)
	prometheus.MustRegister(IngestFetchFailuresTotal)
	prometheus.MustRegister(CleanupFailuresTotal)
	ingestMetricsRegistered = true
}
