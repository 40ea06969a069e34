package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leftovers/server/internal/middleware"
	"github.com/leftovers/server/internal/models"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, models.DataResponse{Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.NewErrorResponse(message))
}

// respondServiceError maps an error kind to a status. notFoundStatus lets a
// route report unknown ids with a status other than 404.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundStatus int) {
	switch {
	case errors.Is(err, models.ErrValidation):
		respondError(w, http.StatusBadRequest, errorMessage(err))
	case errors.Is(err, models.ErrNotFound):
		respondError(w, notFoundStatus, errorMessage(err))
	default:
		middleware.GetLoggerFromContext(r.Context()).WithContext(r.Context()).Errorf("request failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// errorMessage returns the client facing message of an AppError
func errorMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
