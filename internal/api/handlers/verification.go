package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/api/middleware"
	"github.com/Harshitk-cp/rumormill/internal/service"
)

type VerificationHandler struct {
	svc *service.VerificationService
}

func NewVerificationHandler(svc *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type verifyRequest struct {
	IsTrue bool `json:"is_true"`
}

type batchVerifyRequest struct {
	Entries []service.BatchVerifyEntry `json:"entries"`
}

// Verify settles one rumor. Oracle only.
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !identity.Oracle {
		writeError(w, http.StatusForbidden, "caller is not the verification oracle")
		return
	}

	rumorID, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Verify(r.Context(), rumorID, req.IsTrue, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRumorNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyVerified):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to verify rumor")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Preview reports what a verification would distribute, without settling.
func (h *VerificationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	rumorID, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	isTrue := r.URL.Query().Get("outcome") != "false"

	result, err := h.svc.Preview(r.Context(), rumorID, isTrue)
	if err != nil {
		if errors.Is(err, service.ErrRumorNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to preview verification")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// BatchVerify settles many rumors in one call. Oracle only.
func (h *VerificationHandler) BatchVerify(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !identity.Oracle {
		writeError(w, http.StatusForbidden, "caller is not the verification oracle")
		return
	}

	var req batchVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, "entries are required")
		return
	}

	result, err := h.svc.BatchVerify(r.Context(), req.Entries, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to run batch verification")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
