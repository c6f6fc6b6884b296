package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesSentinel(t *testing.T) {
	err := Clone(ErrConflict, "Cannot delete this request as it is in a batch.")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.Equal(t, http.StatusConflict, err.Status)
}

func TestWithFieldsCopiesMap(t *testing.T) {
	fields := map[string]string{"its": "This field is required."}
	err := WithFields(ErrValidation, "", fields)
	fields["its"] = "changed"

	assert.Equal(t, "This field is required.", err.Fields["its"])
	assert.Equal(t, "validation failed", err.Message)
	assert.Nil(t, ErrValidation.Fields)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := errors.New("dial tcp: refused")
	got := FromError(fmt.Errorf("list requests: %w", plain))
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.ErrorIs(t, got, plain)

	wrapped := fmt.Errorf("svc: %w", Clone(ErrNotFound, "request not found"))
	assert.Equal(t, "request not found", FromError(wrapped).Message)
}

func TestErrorString(t *testing.T) {
	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Equal(t, "internal server error: boom", Wrap(errors.New("boom"), "INTERNAL_ERROR", 500, "internal server error").Error())
}
