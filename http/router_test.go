package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prequal-service/metrics"
	"prequal-service/render"
	"prequal-service/repository"
	"prequal-service/service"
)

const testSecret = "test-secret"

type sequenceIDs struct{ n int }

func (s *sequenceIDs) NewID() string {
	s.n++
	return fmt.Sprintf("CERT%04d", s.n)
}

type testServer struct {
	handler http.Handler
	limiter *RateLimiter
}

func newTestServer(t *testing.T, authRequired bool, capacity int) testServer {
	t.Helper()

	logger := zap.NewNop()
	engine := service.NewQuoteEngine(&sequenceIDs{}, func() time.Time {
		return time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	}, service.DefaultPolicy())
	m := metrics.New("test")
	certs := service.NewCertificateService(engine,
		repository.NewCertificateRepositoryMemory(),
		repository.NewMemoryCache(time.Hour),
		render.NewPDFRenderer(render.DefaultBranding()),
		logger,
		service.WithRecorder(m),
	)

	limiter := NewRateLimiter(capacity, time.Minute)
	t.Cleanup(limiter.Stop)

	return testServer{
		limiter: limiter,
		handler: NewRouter(RouterDeps{
			Quotes:       NewQuoteHandler(certs, logger),
			Certificates: NewCertificateHandler(certs, logger),
			Health:       NewHealthHandler("Pre-Qualification App API", "test", nil, logger),
			Auth:         NewAuthenticator(testSecret, "", authRequired, logger),
			CORS:         NewCORS([]string{"localhost:3000"}),
			RateLimiter:  limiter,
			Metrics:      m,
			Logger:       logger,
		}),
	}
}

func signToken(t *testing.T, subject string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: subject + "@example.com",
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const affordabilityBody = `{
	"calculation_type": "AFFORDABILITY",
	"applicant": {"name": "Jane Doe", "email": "jane@example.com"},
	"affordability_input": {
		"gross_monthly_income": 30000,
		"dsr_ratio": 0.4,
		"monthly_obligations": 4000,
		"annual_interest_rate": 0.12,
		"term_years": 20,
		"stress_rate_bps": 200
	}
}`

const paymentBody = `{
	"calculation_type": "PAYMENT",
	"applicant": {"name": "John Roe"},
	"currency": "USD",
	"payment_input": {
		"principal_amount": 800000,
		"annual_interest_rate": 0.12,
		"term_years": 20
	}
}`

func TestHealth(t *testing.T) {
	s := newTestServer(t, false, 10)

	rec := s.do(t, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "Pre-Qualification App API", body["service"])

	rec = s.do(t, http.MethodGet, "/api/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCalculate_Affordability(t *testing.T) {
	s := newTestServer(t, false, 10)

	rec := s.do(t, http.MethodPost, "/api/calculate", affordabilityBody, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "CERT0001", body["certificate_id"])
	assert.Equal(t, "AFFORDABILITY", body["calculation_type"])
	assert.Equal(t, "TTD", body["currency"])
	assert.Equal(t, "2026-03-01", body["issue_date"])
	assert.Equal(t, "2026-05-30", body["expiry_date"])
	assert.Equal(t, 8000.0, body["affordable_payment"])
	assert.InDelta(t, 726555, body["max_loan_amount"], 5000)
	assert.Equal(t, 8000.0, body["monthly_payment"])
	assert.NotContains(t, body, "principal_amount")

	stress, ok := body["stress_test"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 200.0, stress["stress_rate_bps"])
	assert.Equal(t, 14.0, stress["stress_rate_percent"])
	for _, key := range []string{"stress_max_loan", "stress_max_loan_formatted", "reduction_amount", "reduction_percent"} {
		assert.Contains(t, stress, key)
	}
	for _, key := range []string{"stress_monthly_payment", "increase_amount", "stressed_amount", "delta_amount"} {
		assert.NotContains(t, stress, key)
	}
	assert.Less(t, stress["stress_max_loan"], body["max_loan_amount"])
	assert.Greater(t, stress["reduction_percent"], 0.0)
}

func TestCalculate_Payment(t *testing.T) {
	s := newTestServer(t, false, 10)

	rec := s.do(t, http.MethodPost, "/api/calculate", paymentBody, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "USD", body["currency"])
	assert.InDelta(t, 8808.69, body["monthly_payment"], 0.02)
	assert.NotContains(t, body, "stress_test")
	assert.NotContains(t, body, "max_loan_amount")
}

func TestCalculate_PaymentStress(t *testing.T) {
	s := newTestServer(t, false, 10)

	body := strings.Replace(paymentBody, `"term_years": 20`, `"term_years": 20, "stress_rate_bps": 200`, 1)
	rec := s.do(t, http.MethodPost, "/api/calculate", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody(t, rec)
	stress, ok := resp["stress_test"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"stress_monthly_payment", "stress_payment_formatted", "increase_amount", "increase_percent"} {
		assert.Contains(t, stress, key)
	}
	for _, key := range []string{"stress_max_loan", "reduction_amount", "stressed_amount", "delta_percent"} {
		assert.NotContains(t, stress, key)
	}
	assert.Greater(t, stress["stress_monthly_payment"], resp["monthly_payment"])
	assert.Regexp(t, `^USD \$[0-9,]+\.[0-9]{2}$`, stress["stress_payment_formatted"])
}

func TestCalculate_Rejections(t *testing.T) {
	s := newTestServer(t, false, 10)

	t.Run("malformed json", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/calculate", `{"calculation_type":`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", decodeBody(t, rec)["error"])
	})

	t.Run("schema violation", func(t *testing.T) {
		body := strings.Replace(affordabilityBody, `"term_years": 20`, `"term_years": 0`, 1)
		rec := s.do(t, http.MethodPost, "/api/calculate", body, "")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		resp := decodeBody(t, rec)
		assert.Equal(t, "schema_violation", resp["error"])
		details := resp["details"].(map[string]any)
		violations := details["violations"].([]any)
		require.Len(t, violations, 1)
		assert.Equal(t, "affordability_input.term_years", violations[0].(map[string]any)["field"])
	})

	t.Run("negative affordability", func(t *testing.T) {
		body := strings.Replace(affordabilityBody, `"monthly_obligations": 4000`, `"monthly_obligations": 20000`, 1)
		rec := s.do(t, http.MethodPost, "/api/calculate", body, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeBody(t, rec)
		assert.Equal(t, "negative_affordability", resp["error"])
		assert.Equal(t, -8000.0, resp["details"].(map[string]any)["affordable_payment"])
	})
}

func TestCertificates_OwnerScoping(t *testing.T) {
	s := newTestServer(t, false, 10)
	alice := signToken(t, "alice")
	bob := signToken(t, "bob")

	rec := s.do(t, http.MethodPost, "/api/calculate", paymentBody, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeBody(t, rec)["certificate_id"].(string)

	rec = s.do(t, http.MethodGet, "/api/certificates/"+id, "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decodeBody(t, rec)["owner_id"])

	rec = s.do(t, http.MethodGet, "/api/certificates/"+id, "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/certificates/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/certificates", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody(t, rec)["certificates"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].(map[string]any)["id"])

	rec = s.do(t, http.MethodGet, "/api/certificates", "", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["certificates"])
}

func TestCertificates_ListRequiresAuthentication(t *testing.T) {
	s := newTestServer(t, false, 10)

	rec := s.do(t, http.MethodGet, "/api/certificates", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/certificates?limit=0", "", signToken(t, "alice"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCertificates_Document(t *testing.T) {
	s := newTestServer(t, false, 10)

	rec := s.do(t, http.MethodPost, "/api/calculate", affordabilityBody, "")
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeBody(t, rec)["certificate_id"].(string)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/generate-certificate/" + id},
		{http.MethodGet, "/api/certificates/" + id + "/document"},
	} {
		rec = s.do(t, route.method, route.path, "", "")
		require.Equal(t, http.StatusOK, rec.Code, route.path)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="Pre-Qualification_Certificate_`+id+`.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	}

	rec = s.do(t, http.MethodPost, "/api/generate-certificate/NOPE0000", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalculate_RateLimited(t *testing.T) {
	s := newTestServer(t, false, 2)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/api/calculate", paymentBody, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/api/calculate", paymentBody, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeBody(t, rec)["error"])

	rec = s.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, false, 10)
	s.do(t, http.MethodPost, "/api/calculate", paymentBody, "")

	rec := s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_quotes_total{calculation_type="PAYMENT",outcome="ok"} 1`)
}
