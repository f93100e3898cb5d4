package middleware

import (
	"net/http"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// HeaderGuardOutcome reports the guard outcome on every guarded response.
	HeaderGuardOutcome = "X-Guard-Outcome"

	contextUserKey     = "forum_user"
	contextDecisionKey = "guard_decision"
)

// RouteGuardMiddleware evaluates the guard for the request path before the
// view handler runs. Only an allow outcome reaches the handler.
func RouteGuardMiddleware(guard ports.RouteGuard, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := guard.Check(c.Request.Context(), c.Request.URL.Path)
		c.Header(HeaderGuardOutcome, decision.Outcome.String())
		c.Set(contextDecisionKey, decision)

		switch decision.Outcome {
		case domain.OutcomeAllow:
			if decision.User != nil {
				c.Set(contextUserKey, decision.User)
			}
			c.Next()

		case domain.OutcomeLoading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{
				"status":  "loading",
				"message": "session is being established",
			})

		case domain.OutcomeRedirectUnauthenticated, domain.OutcomeRedirectUnauthorized:
			logger.Infow("Guard redirect",
				"path", c.Request.URL.Path,
				"outcome", decision.Outcome.String(),
				"redirect_to", decision.RedirectTo,
			)
			c.Redirect(http.StatusFound, decision.RedirectTo)
			c.Abort()

		default:
			err := decision.Err
			if err == nil {
				err = apperrors.NewInternalError("route guard failed")
			}
			_ = c.Error(err)
			c.Abort()
		}
	}
}

// UserFromContext returns the profile resolved by the guard, if any.
func UserFromContext(c *gin.Context) (*domain.UserRecord, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.UserRecord)
	return user, ok && user != nil
}

// DecisionFromContext returns the guard decision for the request.
func DecisionFromContext(c *gin.Context) (domain.Decision, bool) {
	v, ok := c.Get(contextDecisionKey)
	if !ok {
		return domain.Decision{}, false
	}
	d, ok := v.(domain.Decision)
	return d, ok
}
