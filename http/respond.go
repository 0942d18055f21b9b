package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// writeJSON encodes into a buffer first so that an encoding failure can still
// produce a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}

// writeError writes the JSON error envelope:
//
//	{"error": code, "message": message, "request_id": id, "details": {...}}
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, code, message string, details map[string]any) {
	payload := map[string]any{
		"error":   code,
		"message": message,
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		payload["request_id"] = id
	}
	if len(details) > 0 {
		payload["details"] = details
	}
	writeJSON(w, logger, status, payload)
}
