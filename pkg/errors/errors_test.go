package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := fmt.Errorf("close session: %w", Clone(ErrInvalidState, "session already closed"))
	appErr := FromError(err)
	assert.Equal(t, ErrInvalidState.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "session already closed", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")
	appErr := FromError(cause)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, FromError(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrConflict, "lead teacher already assigned")
	assert.ErrorIs(t, err, ErrConflict)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, HasCode(err, "CONFLICT"))
	assert.False(t, HasCode(nil, "CONFLICT"))
}

func TestWithDetailsDoesNotMutateOriginal(t *testing.T) {
	detailed := WithDetails(ErrConflict, map[string]interface{}{"leadTeacherId": "t-1"})
	assert.Equal(t, "t-1", detailed.Details["leadTeacherId"])
	assert.Nil(t, ErrConflict.Details)
}
