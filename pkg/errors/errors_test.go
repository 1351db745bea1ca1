package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, ToHTTPStatus(ErrUnauthorized))
	assert.Equal(t, http.StatusUnprocessableEntity, ToHTTPStatus(ErrValidation))
	assert.Equal(t, http.StatusServiceUnavailable, ToHTTPStatus(ErrServiceUnavailable))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(fmt.Errorf("boom")))

	wrapped := fmt.Errorf("while handling: %w", ErrValidation.WithDetail("violations", []string{"x"}))
	assert.Equal(t, http.StatusUnprocessableEntity, ToHTTPStatus(wrapped))
}

func TestWithDetail_DoesNotMutateSentinel(t *testing.T) {
	err := ErrValidation.WithDetail("violations", []string{"a"})
	require.Len(t, err.Details, 1)
	assert.Empty(t, ErrValidation.Details)

	other := ErrValidation.WithDetail("violations", []string{"b"})
	assert.Equal(t, []string{"a"}, err.Details["violations"])
	assert.Equal(t, []string{"b"}, other.Details["violations"])
}

func TestToErrorResponse_HidesInternalDetails(t *testing.T) {
	internal := ErrInternal.WithCause(fmt.Errorf("pq: password authentication failed")).
		WithDetail("dsn", "postgres://...")
	resp := ToErrorResponse(internal)

	assert.Equal(t, "INTERNAL_ERROR", resp["error_code"])
	assert.NotContains(t, resp, "details")

	validation := ErrValidation.WithDetail("violations", []string{"ts: bad"})
	resp = ToErrorResponse(validation)
	assert.Contains(t, resp, "details")
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsUnauthorized(ErrUnauthorized.WithCause(fmt.Errorf("hex"))))
	assert.False(t, IsUnauthorized(ErrValidation))
	assert.True(t, IsValidation(fmt.Errorf("wrap: %w", ErrValidation)))
	assert.False(t, IsValidation(fmt.Errorf("plain")))
}
