package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	ReadingsIngested  prometheus.Counter
	ReadingsRejected  prometheus.Counter
	AnalysesPerformed prometheus.Counter

	// Recommendations by alert level: none, warning, critical.
	Recommendations *prometheus.CounterVec

	// Kafka ingest pipeline metrics.
	IngestRunning    prometheus.Gauge
	IngestBatchSize  prometheus.Histogram
	IngestBatchCycle prometheus.Histogram
	DecodeErrors     prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agro_advisor",
			Name:      "readings_ingested_total",
			Help:      "Total sensor readings persisted, across HTTP and Kafka sources.",
		}),
		ReadingsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agro_advisor",
			Name:      "readings_rejected_total",
			Help:      "Total readings rejected by range validation.",
		}),
		AnalysesPerformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agro_advisor",
			Name:      "analyses_performed_total",
			Help:      "Total decision engine evaluations, persisted or not.",
		}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agro_advisor",
			Name:      "recommendations_total",
			Help:      "Recommendations produced, labeled by alert level.",
		}, []string{"alert_level"}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "agro_advisor",
			Name:      "ingest_running",
			Help:      "1 when the Kafka ingest pipeline is active, 0 when shut down.",
		}),
		IngestBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agro_advisor",
			Name:      "ingest_batch_size",
			Help:      "Number of readings per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		IngestBatchCycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agro_advisor",
			Name:      "ingest_batch_cycle_seconds",
			Help:      "Duration of a complete extract-analyze-persist cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agro_advisor",
			Name:      "decode_errors_total",
			Help:      "Total Kafka messages that failed decoding or validation.",
		}),
	}

	prometheus.MustRegister(
		m.ReadingsIngested,
		m.ReadingsRejected,
		m.AnalysesPerformed,
		m.Recommendations,
		m.IngestRunning,
		m.IngestBatchSize,
		m.IngestBatchCycle,
		m.DecodeErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReadingsIngested:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agro_advisor", Name: "readings_ingested_total"}),
		ReadingsRejected:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agro_advisor", Name: "readings_rejected_total"}),
		AnalysesPerformed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agro_advisor", Name: "analyses_performed_total"}),
		Recommendations:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "agro_advisor", Name: "recommendations_total"}, []string{"alert_level"}),
		IngestRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "agro_advisor", Name: "ingest_running"}),
		IngestBatchSize:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "agro_advisor", Name: "ingest_batch_size"}),
		IngestBatchCycle:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "agro_advisor", Name: "ingest_batch_cycle_seconds"}),
		DecodeErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agro_advisor", Name: "decode_errors_total"}),
	}
}
