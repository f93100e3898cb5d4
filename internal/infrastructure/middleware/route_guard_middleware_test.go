package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"forumclient/internal/core/domain"
	apperrors "forumclient/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubGuard struct {
	decision domain.Decision
	paths    []string
}

func (g *stubGuard) SessionGuard(context.Context) domain.Decision { return g.decision }

func (g *stubGuard) RoleGuard(context.Context, domain.Role) domain.Decision { return g.decision }

func (g *stubGuard) Check(_ context.Context, path string) domain.Decision {
	g.paths = append(g.paths, path)
	return g.decision
}

func guardedRouter(t *testing.T, guard *stubGuard, ran *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t).Sugar()

	router := gin.New()
	router.Use(RecoveryMiddleware(logger), RequestIDMiddleware(), ErrorHandlerMiddleware(logger))
	router.GET("/dashboard/*rest", RouteGuardMiddleware(guard, logger), func(c *gin.Context) {
		*ran = true
		user, ok := UserFromContext(c)
		if ok {
			c.JSON(http.StatusOK, gin.H{"user": user.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{})
	})
	return router
}

func TestRouteGuardMiddleware_Allow(t *testing.T) {
	guard := &stubGuard{decision: domain.Decision{Outcome: domain.OutcomeAllow, User: &domain.UserRecord{ID: "u1"}}}
	ran := false
	router := guardedRouter(t, guard, &ran)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/dashboard/reports", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ran)
	assert.Equal(t, "allow", w.Header().Get(HeaderGuardOutcome))
	assert.Contains(t, w.Body.String(), "u1")
	assert.Equal(t, []string{"/dashboard/reports"}, guard.paths)
}

func TestRouteGuardMiddleware_Loading(t *testing.T) {
	guard := &stubGuard{decision: domain.Decision{Outcome: domain.OutcomeLoading}}
	ran := false
	router := guardedRouter(t, guard, &ran)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/dashboard/x", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.False(t, ran)
	assert.Empty(t, w.Header().Get("Location"))
}

func TestRouteGuardMiddleware_Redirects(t *testing.T) {
	for _, outcome := range []domain.Outcome{domain.OutcomeRedirectUnauthenticated, domain.OutcomeRedirectUnauthorized} {
		guard := &stubGuard{decision: domain.Decision{Outcome: outcome, RedirectTo: domain.LoginPath}}
		ran := false
		router := guardedRouter(t, guard, &ran)

		w := serve(router, httptest.NewRequest(http.MethodGet, "/dashboard/x", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, domain.LoginPath, w.Header().Get("Location"))
		assert.Equal(t, outcome.String(), w.Header().Get(HeaderGuardOutcome))
		assert.False(t, ran)
	}
}

func TestRouteGuardMiddleware_ErrorRendered(t *testing.T) {
	guard := &stubGuard{decision: domain.Decision{
		Outcome: domain.OutcomeError,
		Err:     apperrors.NewResolutionError("uid-1", apperrors.NewBadGatewayError("upstream down")),
	}}
	ran := false
	router := guardedRouter(t, guard, &ran)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/dashboard/x", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, ran)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "RESOLUTION_ERROR", body["error"])
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	w = serve(router, req)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryMiddleware(zaptest.NewLogger(t).Sugar()))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
