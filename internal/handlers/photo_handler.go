package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leftovers/server/internal/services"
)

// PhotoHandler serves stored photos
type PhotoHandler struct {
	photos services.PhotoStore
}

// NewPhotoHandler creates a new PhotoHandler
func NewPhotoHandler(photos services.PhotoStore) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// Get returns the raw bytes of a stored photo
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	data, err := h.photos.Retrieve(chi.URLParam(r, "name"))
	if err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}

	// stored names are never reused
	etag := services.PhotoETag(data)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if match := r.Header.Get("If-None-Match"); match != "" && services.ETagMatches(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
