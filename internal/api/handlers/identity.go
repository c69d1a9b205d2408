package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/api/middleware"
	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/Harshitk-cp/rumormill/internal/service"
)

type IdentityHandler struct {
	svc *service.IdentityService
}

func NewIdentityHandler(svc *service.IdentityService) *IdentityHandler {
	return &IdentityHandler{svc: svc}
}

type registerRequest struct {
	Commitment string `json:"commitment"`
	PublicKey  string `json:"public_key"`
	Proof      string `json:"proof"`
}

type registerResponse struct {
	Identity  *domain.Identity `json:"identity"`
	AccessKey string           `json:"access_key"`
}

// Register is the unauthenticated bootstrap endpoint. The access key in the
// response is shown exactly once.
func (h *IdentityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	publicKey, err := base64.StdEncoding.DecodeString(req.PublicKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid public_key encoding")
		return
	}
	proof, err := base64.StdEncoding.DecodeString(req.Proof)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proof encoding")
		return
	}

	identity, accessKey, err := h.svc.Register(r.Context(), req.Commitment, publicKey, proof, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCommitment), errors.Is(err, service.ErrInvalidProof):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAlreadyRegistered):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to register identity")
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{Identity: identity, AccessKey: accessKey})
}

func (h *IdentityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid identity id")
		return
	}

	identity, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrIdentityNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get identity")
		return
	}

	writeJSON(w, http.StatusOK, identity)
}

// Me returns the authenticated caller's own identity.
func (h *IdentityHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

// Weight previews the voting weight an identity would cast with right now.
func (h *IdentityHandler) Weight(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid identity id")
		return
	}

	weight, err := h.svc.VotingWeight(r.Context(), id, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute voting weight")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"identity_id": id,
		"weight_bp":   weight,
	})
}
