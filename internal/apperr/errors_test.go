package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := Validation("source and destination must differ")

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNegativeStock)

	wrapped := fmt.Errorf("create transfer: %w", err)
	assert.ErrorIs(t, wrapped, ErrValidation)
	assert.Equal(t, CodeValidation, CodeOf(wrapped))
}

func TestAppError_ErrorString(t *testing.T) {
	assert.Equal(t, "INVALID_STATE: transfer is Accepted", InvalidState("transfer is %s", "Accepted").Error())

	cause := errors.New("connection reset")
	assert.Equal(t, "INTERNAL_ERROR: load: connection reset", Internal("load", cause).Error())
	assert.ErrorIs(t, Internal("load", cause), cause)
}

func TestAppError_Details(t *testing.T) {
	err := NotFound("transfer", "TRF-1").WithDetail("hint", "check id")

	assert.Equal(t, "TRF-1", err.Details["id"])
	assert.Equal(t, "check id", err.Details["hint"])
}

func TestCodeOf_ForeignError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"conflict", Conflict("version mismatch"), true},
		{"wrapped conflict", fmt.Errorf("save: %w", Conflict("version mismatch")), true},
		{"permanent conflict", Conflict("counted stock moved").Permanent(), false},
		{"other code", InvalidState("transfer is Accepted"), false},
		{"foreign", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestPermanent_KeepsCode(t *testing.T) {
	err := Conflict("counted stock moved").Permanent()

	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, CodeConcurrencyConflict, CodeOf(err))
}
