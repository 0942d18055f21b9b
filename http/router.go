package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"prequal-service/metrics"
)

type RouterDeps struct {
	Quotes       *QuoteHandler
	Certificates *CertificateHandler
	Health       *HealthHandler
	Auth         *Authenticator
	CORS         *CORS
	RateLimiter  *RateLimiter // nil disables rate limiting
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Logger, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(d.CORS.Middleware)

	r.Get("/api/health", d.Health.Health)
	r.Get("/api/ready", d.Health.Ready)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(d.Auth.Middleware)

		var calculate http.Handler = http.HandlerFunc(d.Quotes.Calculate)
		if d.RateLimiter != nil {
			calculate = RateLimitMiddleware(d.RateLimiter, d.Logger, calculate)
		}
		r.Method(http.MethodPost, "/api/calculate", calculate)

		r.With(d.Auth.RequireAuthenticated).Get("/api/certificates", d.Certificates.List)
		r.Get("/api/certificates/{id}", d.Certificates.Get)
		r.Get("/api/certificates/{id}/document", d.Certificates.Document)
		r.Post("/api/generate-certificate/{id}", d.Certificates.Document)
	})

	return r
}

// RequestLogger logs one line per request and feeds the latency histogram
// when m is non-nil.
func RequestLogger(logger *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
			if m != nil {
				m.ObserveRequest(r.Method, route, status, elapsed)
			}
		})
	}
}
