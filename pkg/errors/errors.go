package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeRateLimit          ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeBadGateway         ErrorCode = "BAD_GATEWAY"

	ErrCodeSession                ErrorCode = "SESSION_ERROR"
	ErrCodeResolution             ErrorCode = "RESOLUTION_ERROR"
	ErrCodeQuotaExceeded          ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeModerationInconsistent ErrorCode = "MODERATION_INCONSISTENT"
)

// AppError represents an application error with code and context
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Context    map[string]interface{}
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Context:    make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with application error
func WrapError(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      err,
		Context:    make(map[string]interface{}),
	}
}

// Common error constructors
func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, http.StatusForbidden)
}

func NewConflictError(message string) *AppError {
	return NewAppError(ErrCodeConflict, message, http.StatusConflict)
}

func NewRateLimitError() *AppError {
	return NewAppError(ErrCodeRateLimit, "rate limit exceeded", http.StatusTooManyRequests)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func NewServiceUnavailableError(message string) *AppError {
	return NewAppError(ErrCodeServiceUnavailable, message, http.StatusServiceUnavailable)
}

func NewBadGatewayError(message string) *AppError {
	return NewAppError(ErrCodeBadGateway, message, http.StatusBadGateway)
}

// NewSessionError is returned to the form that initiated a sign-in, sign-up or reset.
func NewSessionError(message string, cause error) *AppError {
	return WrapError(cause, ErrCodeSession, message, http.StatusUnauthorized)
}

// NewResolutionError marks a failed profile lookup. Callers must not fall back to a default role.
func NewResolutionError(identityID string, cause error) *AppError {
	return WrapError(cause, ErrCodeResolution, "failed to resolve user profile", http.StatusServiceUnavailable).
		WithContext("identity_id", identityID)
}

func NewQuotaExceededError(limit int) *AppError {
	return NewAppError(ErrCodeQuotaExceeded, fmt.Sprintf("free tier allows at most %d posts", limit), http.StatusForbidden).
		WithContext("limit", limit)
}

// NewModerationInconsistentError reports a resolved report whose comment is still present.
func NewModerationInconsistentError(reportID, commentID string, cause error) *AppError {
	return WrapError(cause, ErrCodeModerationInconsistent,
		"report resolved but comment deletion failed", http.StatusBadGateway).
		WithContext("report_id", reportID).
		WithContext("comment_id", commentID)
}

// FromHTTPStatus maps a remote response status to an application error.
func FromHTTPStatus(status int, message string) *AppError {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewInvalidInputError(message)
	case status == http.StatusUnauthorized:
		return NewUnauthorizedError(message)
	case status == http.StatusForbidden:
		return NewForbiddenError(message)
	case status == http.StatusNotFound:
		return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
	case status == http.StatusConflict:
		return NewConflictError(message)
	case status == http.StatusTooManyRequests:
		return NewAppError(ErrCodeRateLimit, message, http.StatusTooManyRequests)
	case status == http.StatusServiceUnavailable:
		return NewServiceUnavailableError(message)
	case status >= 500:
		return NewBadGatewayError(message)
	default:
		return NewInternalError(message)
	}
}

// IsAppError checks if error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		appErr := GetAppError(err)
		if appErr == nil {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsAuthorizationError reports whether err is a 401/403-class failure.
func IsAuthorizationError(err error) bool {
	return HasCode(err, ErrCodeUnauthorized) || HasCode(err, ErrCodeForbidden)
}
