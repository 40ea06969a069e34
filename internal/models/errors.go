package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error surfaced by the services unwraps to one of these.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrStorageFailure = errors.New("storage failure")
)

// AppError carries a human readable message together with its kind
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Kind
}

// ValidationError builds an ErrValidation error with a formatted message
func ValidationError(format string, args ...interface{}) error {
	return &AppError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError builds an ErrNotFound error with a formatted message
func NotFoundError(format string, args ...interface{}) error {
	return &AppError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a lower level failure as ErrStorageFailure.
// The cause is kept in the message for logs only.
func StorageError(op string, cause error) error {
	return &AppError{Kind: ErrStorageFailure, Message: fmt.Sprintf("%s: %v", op, cause)}
}

var (
	ErrFileTooLarge  = &AppError{Kind: ErrValidation, Message: "photo size exceeds maximum allowed"}
	ErrPathTraversal = &AppError{Kind: ErrNotFound, Message: "invalid photo name"}
)
