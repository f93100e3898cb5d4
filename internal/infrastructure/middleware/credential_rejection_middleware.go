package middleware

import (
	"context"
	"net/http"

	"forumclient/internal/core/domain"
	apperrors "forumclient/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignOuter ends the current session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// CredentialRejectionMiddleware treats an UNAUTHORIZED or FORBIDDEN error raised
// by a guarded view the way the guard treats one from profile resolution: the
// session is signed out and the caller is sent to the login page. A view that
// already wrote its response keeps it.
func CredentialRejectionMiddleware(identity SignOuter, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		var rejected error
		for _, e := range c.Errors {
			if apperrors.IsAuthorizationError(e.Err) {
				rejected = e.Err
				break
			}
		}
		if rejected == nil {
			return
		}

		logger.Warnw("Credential rejected during view, forcing sign-out",
			"path", c.Request.URL.Path,
			"error", rejected,
		)
		if err := identity.SignOut(c.Request.Context()); err != nil {
			logger.Errorw("Forced sign-out failed", "path", c.Request.URL.Path, "error", err)
		}

		if c.Writer.Written() {
			return
		}
		c.Header(HeaderGuardOutcome, domain.OutcomeRedirectUnauthenticated.String())
		c.Redirect(http.StatusFound, domain.LoginPath)
		c.Abort()
	}
}
