package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"prequal-service/domain"
	"prequal-service/service"
)

type CertificateHandler struct {
	service *service.CertificateService
	logger  *zap.Logger
}

func NewCertificateHandler(service *service.CertificateService, logger *zap.Logger) *CertificateHandler {
	return &CertificateHandler{service: service, logger: logger}
}

// List returns the caller's certificates, newest first.
func (h *CertificateHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, h.logger, http.StatusBadRequest, "invalid_request", "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	owner := PrincipalFromContext(r.Context()).OwnerID()
	certs, err := h.service.List(r.Context(), owner, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	summaries := make([]domain.CertificateSummary, 0, len(certs))
	for _, c := range certs {
		summaries = append(summaries, c.Summary())
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"certificates": summaries})
}

func (h *CertificateHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := PrincipalFromContext(r.Context()).OwnerID()

	cert, err := h.service.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, cert)
}

// Document streams the rendered certificate as a PDF attachment.
func (h *CertificateHandler) Document(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	owner := PrincipalFromContext(r.Context()).OwnerID()

	doc, err := h.service.Document(r.Context(), owner, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="Pre-Qualification_Certificate_%s.pdf"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		h.logger.Warn("error writing certificate document", zap.String("certificate_id", id), zap.Error(err))
	}
}

func (h *CertificateHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrCertificateNotFound) {
		writeError(w, r, h.logger, http.StatusNotFound, "not_found", "certificate not found", nil)
		return
	}
	h.logger.Error("certificate request failed", zap.Error(err))
	writeError(w, r, h.logger, http.StatusInternalServerError, "internal_error", "internal server error", nil)
}
