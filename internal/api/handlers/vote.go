package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/api/middleware"
	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/Harshitk-cp/rumormill/internal/service"
)

type VoteHandler struct {
	svc *service.VotingService
}

func NewVoteHandler(svc *service.VotingService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

type castVoteRequest struct {
	Type string `json:"type"`
}

func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rumorID, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vote, err := h.svc.CastVote(r.Context(), rumorID, identity.ID, domain.VoteType(req.Type), time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVoteType):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRumorNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrIdentityBlocked), errors.Is(err, service.ErrSelfVote), errors.Is(err, service.ErrZeroWeight):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrAlreadyVoted), errors.Is(err, service.ErrRumorNotVotable):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrVoteLimitExceeded):
			writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to cast vote")
		}
		return
	}

	writeJSON(w, http.StatusCreated, vote)
}

// Tally recomputes the vote aggregate from stored records.
func (h *VoteHandler) Tally(w http.ResponseWriter, r *http.Request) {
	rumorID, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	tally, err := h.svc.Tally(r.Context(), rumorID)
	if err != nil {
		if errors.Is(err, service.ErrRumorNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to tally votes")
		return
	}

	writeJSON(w, http.StatusOK, tally)
}

func (h *VoteHandler) List(w http.ResponseWriter, r *http.Request) {
	rumorID, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid rumor id")
		return
	}

	votes, err := h.svc.ListByRumor(r.Context(), rumorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list votes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rumor_id": rumorID,
		"votes":    votes,
	})
}
