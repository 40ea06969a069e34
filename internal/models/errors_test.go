package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("unwraps to its kind through wrapping", func(t *testing.T) {
		err := fmt.Errorf("sync: %w", NotFoundError("invalid id '%s'", "x"))

		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrValidation)

		var appErr *AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, "invalid id 'x'", appErr.Message)
	})

	t.Run("storage errors keep the cause in the message", func(t *testing.T) {
		err := StorageError("insert party", errors.New("disk full"))

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.EqualError(t, err, "insert party: disk full")
	})

	t.Run("predefined errors carry their kinds", func(t *testing.T) {
		assert.ErrorIs(t, ErrFileTooLarge, ErrValidation)
		assert.ErrorIs(t, ErrPathTraversal, ErrNotFound)
	})
}
