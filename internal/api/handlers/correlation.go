package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/api/middleware"
	"github.com/Harshitk-cp/rumormill/internal/service"
)

type CorrelationHandler struct {
	svc *service.CorrelationService
}

func NewCorrelationHandler(svc *service.CorrelationService) *CorrelationHandler {
	return &CorrelationHandler{svc: svc}
}

type addCorrelationsRequest struct {
	Correlations []service.CorrelationProposal `json:"correlations"`
}

// Add persists an oracle batch of correlations. The batch is all-or-nothing.
func (h *CorrelationHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req addCorrelationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Correlations) == 0 {
		writeError(w, http.StatusBadRequest, "correlations are required")
		return
	}

	created, err := h.svc.AddCorrelations(r.Context(), identity, req.Correlations, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotOracle):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrRumorNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCorrelationSelfPair),
			errors.Is(err, service.ErrInvalidRelationship),
			errors.Is(err, service.ErrInvalidConfidence),
			errors.Is(err, service.ErrCorrelationWindow):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCorrelationExists), errors.Is(err, service.ErrRumorNotActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to add correlations")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"created": created,
	})
}

// Boost evaluates and applies the correlation boost for a rumor.
func (h *CorrelationHandler) Boost(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !identity.Oracle {
		writeError(w, http.StatusForbidden, "caller is not the correlation oracle")
		return
	}

	rumorID, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	outcome, err := h.svc.ApplyBoostFor(r.Context(), rumorID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRumorNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrRumorNotActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to apply boost")
		}
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}
