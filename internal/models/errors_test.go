package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorIs(t *testing.T) {
	wrapped := ErrConflict.WithError(errors.New("duplicate key"))

	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.False(t, errors.Is(wrapped, ErrNotFound))

	// survives further wrapping
	deeper := fmt.Errorf("persist faces: %w", wrapped)
	assert.True(t, errors.Is(deeper, ErrConflict))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := ErrStorageRetrieval.WithError(cause)

	assert.True(t, errors.Is(wrapped, cause))
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppErrorMessageWithoutCause(t *testing.T) {
	assert.Equal(t, "Face not found", ErrFaceNotFound.Error())
}
