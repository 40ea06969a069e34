package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leftovers/server/internal/services"
)

// LeftoverHandler handles single leftover endpoints
type LeftoverHandler struct {
	parties *services.PartyService
}

// NewLeftoverHandler creates a new LeftoverHandler
func NewLeftoverHandler(parties *services.PartyService) *LeftoverHandler {
	return &LeftoverHandler{parties: parties}
}

// SetOwner claims a leftover, or unclaims it with an empty owner.
// Unknown ids answer 400 rather than 404.
func (h *LeftoverHandler) SetOwner(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "must include owner string")
		return
	}

	owner, ok := body["owner"].(string)
	if !ok {
		respondError(w, http.StatusBadRequest, "must include owner string")
		return
	}

	leftover, err := h.parties.SetOwner(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		respondServiceError(w, r, err, http.StatusBadRequest)
		return
	}

	respondData(w, http.StatusOK, leftover)
}
