package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	assert.Equal(t, "INVALID_INPUT: test error", err.Error())
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, ErrCodeInternal, "wrapped error", 500)

	assert.Equal(t, originalErr, err.Cause)
	assert.Contains(t, err.Error(), "original error")
	assert.ErrorIs(t, err, originalErr)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	err.WithContext("field", "value").WithContext("count", 42)

	assert.Equal(t, "value", err.Context["field"])
	assert.Equal(t, 42, err.Context["count"])
}

func TestGetAppError(t *testing.T) {
	appErr := NewAppError(ErrCodeInvalidInput, "test", 400)
	assert.Same(t, appErr, GetAppError(appErr))

	wrapped := fmt.Errorf("calling api: %w", appErr)
	assert.Same(t, appErr, GetAppError(wrapped))

	assert.Nil(t, GetAppError(errors.New("regular error")))
	assert.Nil(t, GetAppError(nil))
}

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusBadRequest, ErrCodeInvalidInput},
		{http.StatusUnauthorized, ErrCodeUnauthorized},
		{http.StatusForbidden, ErrCodeForbidden},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeConflict},
		{http.StatusTooManyRequests, ErrCodeRateLimit},
		{http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{http.StatusInternalServerError, ErrCodeBadGateway},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromHTTPStatus(tt.status, "remote said no")
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestIsAuthorizationError(t *testing.T) {
	assert.True(t, IsAuthorizationError(NewUnauthorizedError("expired")))
	assert.True(t, IsAuthorizationError(fmt.Errorf("get user: %w", NewForbiddenError("nope"))))
	assert.True(t, IsAuthorizationError(NewResolutionError("uid-1", NewUnauthorizedError("expired"))))
	assert.False(t, IsAuthorizationError(NewResolutionError("uid-1", NewBadGatewayError("down"))))
	assert.False(t, IsAuthorizationError(errors.New("plain")))
}

func TestNewModerationInconsistentError(t *testing.T) {
	cause := NewBadGatewayError("delete failed")
	err := NewModerationInconsistentError("r1", "c1", cause)

	require.Equal(t, ErrCodeModerationInconsistent, err.Code)
	assert.Equal(t, "r1", err.Context["report_id"])
	assert.Equal(t, "c1", err.Context["comment_id"])
	assert.True(t, HasCode(err, ErrCodeBadGateway))
}
