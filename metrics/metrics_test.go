package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prequal-service/domain"
	"prequal-service/service"
)

func TestMetrics_QuoteOutcome(t *testing.T) {
	m := New("test")

	m.QuoteOutcome(domain.CalculationAffordability, service.OutcomeOK)
	m.QuoteOutcome(domain.CalculationAffordability, service.OutcomeOK)
	m.QuoteOutcome(domain.CalculationPayment, service.OutcomeSchemaViolation)
	m.QuoteOutcome("REFINANCE", service.OutcomeSchemaViolation)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.quotes.WithLabelValues("AFFORDABILITY", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotes.WithLabelValues("PAYMENT", "schema_violation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotes.WithLabelValues("unknown", "schema_violation")))
}

func TestMetrics_DocumentRendered(t *testing.T) {
	m := New("test")

	m.DocumentRendered(false)
	m.DocumentRendered(true)
	m.DocumentRendered(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues("hit")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("test")
	m.ObserveRequest(http.MethodPost, "/api/calculate", http.StatusOK, 25*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_request_duration_seconds_count{method="POST",route="/api/calculate",status="200"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New("test")
	b := New("test")

	a.DocumentRendered(true)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.documents.WithLabelValues("hit")))
	assert.NotSame(t, a.Registry(), b.Registry())
}
