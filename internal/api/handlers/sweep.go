package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/api/middleware"
	"github.com/Harshitk-cp/rumormill/internal/service"
)

type SweepHandler struct {
	svc *service.SweeperService
}

func NewSweepHandler(svc *service.SweeperService) *SweepHandler {
	return &SweepHandler{svc: svc}
}

// Trigger runs one sweep pass on demand, outside the background schedule.
// Oracle only.
func (h *SweepHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !identity.Oracle {
		writeError(w, http.StatusForbidden, "caller is not the sweep operator")
		return
	}

	result, err := h.svc.RunOnce(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep pass failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
