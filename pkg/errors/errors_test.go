package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesBaseError(t *testing.T) {
	clone := Clone(ErrForbidden, "not your report")
	assert.True(t, errors.Is(clone, ErrForbidden))
	assert.False(t, errors.Is(clone, ErrNotFound))
	assert.Equal(t, "not your report", clone.Message)
	assert.Equal(t, "forbidden", ErrForbidden.Message)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	appErr := FromError(cause)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
	assert.ErrorIs(t, appErr, cause)
}

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrDuplicateDate)
	appErr := FromError(wrapped)
	assert.Equal(t, ErrDuplicateDate.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestValidationCarriesDetails(t *testing.T) {
	appErr := Validation("invalid report payload", map[string]string{"reportDate": "must be YYYY-MM-DD"})
	assert.True(t, errors.Is(appErr, ErrValidation))
	assert.Equal(t, "must be YYYY-MM-DD", appErr.Details["reportDate"])
	assert.Nil(t, ErrValidation.Details)
}
