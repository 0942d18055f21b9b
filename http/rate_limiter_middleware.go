package http

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// RateLimitMiddleware limits next per client address. It expects RemoteAddr
// to have been resolved by a RealIP middleware when running behind a proxy.
func RateLimitMiddleware(limiter *RateLimiter, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r.RemoteAddr)

		allowed, retryAfter := limiter.Allow(client)
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			logger.Info("rate limit exceeded", zap.String("client", client), zap.Int("retry_after_seconds", seconds))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeError(w, r, logger, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
