package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/api/middleware"
	"github.com/Harshitk-cp/rumormill/internal/service"
)

type RumorHandler struct {
	rumorSvc  *service.RumorService
	correlSvc *service.CorrelationService
}

func NewRumorHandler(rumorSvc *service.RumorService, correlSvc *service.CorrelationService) *RumorHandler {
	return &RumorHandler{rumorSvc: rumorSvc, correlSvc: correlSvc}
}

type createRumorRequest struct {
	Content  string   `json:"content"`
	Evidence []string `json:"evidence,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

func (h *RumorHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRumorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	evidence := make([][]byte, 0, len(req.Evidence))
	for i, enc := range req.Evidence {
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid evidence encoding at index "+strconv.Itoa(i))
			return
		}
		evidence = append(evidence, data)
	}

	rumor, err := h.rumorSvc.Create(r.Context(), identity.ID, []byte(req.Content), evidence, req.Keywords, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentEmpty), errors.Is(err, service.ErrEvidenceRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrIdentityBlocked):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrPostLimitExceeded):
			writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create rumor")
		}
		return
	}

	writeJSON(w, http.StatusCreated, rumor)
}

func (h *RumorHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	rumor, err := h.rumorSvc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRumorNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get rumor")
		return
	}

	writeJSON(w, http.StatusOK, rumor)
}

// Content returns the rumor's raw claim text from the content store.
func (h *RumorHandler) Content(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	rumor, err := h.rumorSvc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRumorNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get rumor")
		return
	}

	content, err := h.rumorSvc.Content(r.Context(), rumor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch content")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rumor_id": rumor.ID,
		"address":  rumor.ContentAddress,
		"content":  string(content),
	})
}

func (h *RumorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	tombstone, err := h.rumorSvc.Delete(r.Context(), id, identity.ID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRumorNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotAuthor):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrRumorLocked), errors.Is(err, service.ErrAlreadyDeleted):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete rumor")
		}
		return
	}

	writeJSON(w, http.StatusOK, tombstone)
}

// Related lists the rumor's active correlation counterparts.
func (h *RumorHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	related, err := h.correlSvc.Related(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRumorNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list related rumors")
		return
	}

	writeJSON(w, http.StatusOK, related)
}

// Suggestions returns similarity-ranked correlation candidates.
func (h *RumorHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	candidates, err := h.correlSvc.Suggest(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, service.ErrRumorNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to suggest correlations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rumor_id":   id,
		"candidates": candidates,
	})
}
