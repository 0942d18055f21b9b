package http

import (
	"net/http"
	"strings"
)

// CORS allows cross-origin requests from origins that contain any of the
// configured patterns, e.g. "vercel.app" or "localhost:3000".
type CORS struct {
	patterns []string
}

func NewCORS(patterns []string) *CORS {
	return &CORS{patterns: patterns}
}

func (c *CORS) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, p := range c.patterns {
		if strings.Contains(origin, p) {
			return true
		}
	}
	return false
}

// Middleware answers preflight requests itself and decorates all other
// responses for allowed origins.
func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := c.Allowed(origin)

		if allowed {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "*")
				w.Header().Set("Access-Control-Allow-Headers", "*")
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("{}"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
