package models

import "time"

// DataResponse wraps a successful payload
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ErrorMessage is a single entry of ErrorResponse
type ErrorMessage struct {
	Message string `json:"message"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Errors []ErrorMessage `json:"errors"`
}

// NewErrorResponse builds an ErrorResponse holding one message
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Errors: []ErrorMessage{{Message: message}}}
}

// CreatePartyRequest is the optional body of a party creation request
type CreatePartyRequest struct {
	Name string `json:"name"`
}

// HealthResponse is returned by health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
