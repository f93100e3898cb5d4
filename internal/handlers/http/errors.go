package http

import (
	"errors"
	"net/http"

	"forumclient/internal/core/domain"
	apperrors "forumclient/pkg/errors"

	"github.com/gin-gonic/gin"
)

// toAppError gives domain sentinels an HTTP shape; AppErrors pass through.
func toAppError(err error) error {
	if apperrors.GetAppError(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrIdentityRequired):
		return apperrors.WrapError(err, apperrors.ErrCodeInvalidInput, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotAuthenticated):
		return apperrors.WrapError(err, apperrors.ErrCodeUnauthorized, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrNotAdmin):
		return apperrors.WrapError(err, apperrors.ErrCodeForbidden, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrTransitionInFlight), errors.Is(err, domain.ErrReportNotPending):
		return apperrors.WrapError(err, apperrors.ErrCodeConflict, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrStaleResult):
		return apperrors.WrapError(err, apperrors.ErrCodeBadGateway, err.Error(), http.StatusBadGateway)
	default:
		return err
	}
}

func fail(c *gin.Context, err error) {
	_ = c.Error(toAppError(err))
}

func badRequest(c *gin.Context, message string) {
	_ = c.Error(apperrors.NewInvalidInputError(message))
}
