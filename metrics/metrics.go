// Package metrics exposes Prometheus collectors for the quote service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"prequal-service/domain"
	"prequal-service/service"
)

// Metrics owns a private registry so tests can build independent instances.
type Metrics struct {
	registry        *prometheus.Registry
	quotes          *prometheus.CounterVec
	documents       *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quote requests by calculation type and outcome.",
		}, []string{"calculation_type", "outcome"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "certificate_documents_total",
			Help:      "Certificate documents served, by cache result.",
		}, []string{"cache"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.quotes,
		m.documents,
		m.requestDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// QuoteOutcome implements service.Recorder. Modes outside the known set are
// counted as "unknown" to keep label cardinality bounded.
func (m *Metrics) QuoteOutcome(mode domain.CalculationType, kind service.OutcomeKind) {
	label := string(mode)
	if mode != domain.CalculationAffordability && mode != domain.CalculationPayment {
		label = "unknown"
	}
	m.quotes.WithLabelValues(label, kind.String()).Inc()
}

// DocumentRendered implements service.Recorder.
func (m *Metrics) DocumentRendered(cacheHit bool) {
	label := "miss"
	if cacheHit {
		label = "hit"
	}
	m.documents.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
