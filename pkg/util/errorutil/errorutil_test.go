package errorutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetailsKeepsCodeAndCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	original := NewInternalError(cause)

	got := WithDetails(original, map[string]any{"matched": 3, "modified": 1})
	require.NotNil(t, got)
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	assert.Equal(t, map[string]any{"matched": 3, "modified": 1}, got.Details)
	assert.ErrorIs(t, got, cause)

	assert.Nil(t, original.(*DomainError).Details)
}

func TestWithDetailsMergesExisting(t *testing.T) {
	got := WithDetails(NewValidationError("bad", map[string]any{"field": "status"}), map[string]any{"modified": 0})
	assert.Equal(t, CodeValidation, got.Code)
	assert.Equal(t, map[string]any{"field": "status", "modified": 0}, got.Details)
	assert.Nil(t, WithDetails(nil, map[string]any{"x": 1}))
}
