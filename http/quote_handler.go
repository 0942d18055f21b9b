package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"prequal-service/domain"
	"prequal-service/service"
)

const maxRequestBodyBytes = 1 << 20

type QuoteHandler struct {
	service *service.CertificateService
	logger  *zap.Logger
}

func NewQuoteHandler(service *service.CertificateService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{service: service, logger: logger}
}

// Calculate quotes the request, stores the certificate and returns the
// quote. Schema violations answer 422 and negative affordability 400; both
// carry the details a client needs to explain the rejection.
func (h *QuoteHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req domain.CalculationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		h.logger.Debug("error decoding request body", zap.Error(err))
		writeError(w, r, h.logger, http.StatusBadRequest, "invalid_request", "invalid request body", nil)
		return
	}

	principal := PrincipalFromContext(r.Context())

	outcome, err := h.service.Issue(r.Context(), principal.OwnerID(), req)
	if err != nil {
		h.logger.Error("error issuing certificate", zap.Error(err))
		writeError(w, r, h.logger, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}

	switch outcome.Kind {
	case service.OutcomeSchemaViolation:
		writeError(w, r, h.logger, http.StatusUnprocessableEntity, outcome.Kind.String(), outcome.Violation.Error(),
			map[string]any{"violations": outcome.Violation.Violations})
	case service.OutcomeNegativeAffordability:
		writeError(w, r, h.logger, http.StatusBadRequest, outcome.Kind.String(),
			"Monthly obligations exceed affordable debt service",
			map[string]any{"affordable_payment": outcome.Shortfall.AffordablePayment})
	default:
		writeJSON(w, h.logger, http.StatusOK, outcome.Result)
	}
}
