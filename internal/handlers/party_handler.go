package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leftovers/server/internal/models"
	"github.com/leftovers/server/internal/services"
)

// multipartMemory is how much of a submission is buffered in memory before
// file parts spill to temporary files
const multipartMemory = 32 << 20

// PartyHandler handles party endpoints
type PartyHandler struct {
	parties *services.PartyService
}

// NewPartyHandler creates a new PartyHandler
func NewPartyHandler(parties *services.PartyService) *PartyHandler {
	return &PartyHandler{parties: parties}
}

// Create starts a new party. The JSON body {"name": "..."} is optional.
func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePartyRequest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body.")
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Request body must be a JSON object.")
			return
		}
	}

	party, err := h.parties.Create(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}

	respondData(w, http.StatusCreated, party)
}

// Get returns a party with its leftovers
func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	party, err := h.parties.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}

	respondData(w, http.StatusOK, party)
}

// Synchronize applies a multipart submission to a party.
//
// The form carries exactly one "party" field holding
// {"name": string, "leftovers": [{"id", "description", "owner"}]} and one file
// part per new leftover, named by the leftover's id.
func (h *PartyHandler) Synchronize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// unknown parties are 404 whatever the body holds
	if _, err := h.parties.Get(r.Context(), id); err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body is too large.")
			return
		}
		respondError(w, http.StatusBadRequest, "Request must be multipart/form-data.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	values := r.MultipartForm.Value["party"]
	if len(values) != 1 {
		respondError(w, http.StatusBadRequest, "must include exactly one party field")
		return
	}

	submitted, err := models.ParseSubmittedParty([]byte(values[0]))
	if err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}

	party, err := h.parties.Synchronize(r.Context(), id, submitted, collectUploads(r.MultipartForm))
	if err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}

	respondData(w, http.StatusOK, party)
}

// collectUploads keys the first file of every file part by its field name
func collectUploads(form *multipart.Form) map[string]models.PhotoUpload {
	uploads := make(map[string]models.PhotoUpload, len(form.File))
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		uploads[field] = models.PhotoUpload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	}
	return uploads
}
