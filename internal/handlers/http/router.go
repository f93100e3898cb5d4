package http

import (
	"context"
	"net/http"
	"time"

	"forumclient/internal/core/ports"
	"forumclient/internal/infrastructure/middleware"
	"forumclient/internal/infrastructure/monitoring"
	"forumclient/internal/infrastructure/signal"
	"forumclient/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies is everything the gateway router needs.
type Dependencies struct {
	Config *config.Config
	Logger *zap.SugaredLogger

	Store      ports.SessionStore
	Resolver   ports.ProfileResolver
	Guard      ports.RouteGuard
	Accounts   ports.AccountService
	Posts      ports.PostService
	Moderation ports.ModerationService
	Membership ports.MembershipService
	Admin      ports.AdminService

	// Optional.
	Feed           *signal.WebSocketServer
	Health         *monitoring.HealthChecker
	Recorder       middleware.HTTPRecorder
	MetricsHandler http.Handler
	AccessLog      *zap.Logger
}

// NewRouter assembles the view gateway.
func NewRouter(deps Dependencies) *gin.Engine {
	startTime := time.Now()
	log := deps.Logger

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(),
	)
	if deps.AccessLog != nil {
		router.Use(middleware.AccessLogMiddleware(deps.AccessLog))
	}
	if deps.Recorder != nil {
		router.Use(middleware.MetricsMiddleware(deps.Recorder))
	}
	router.Use(
		middleware.NewHTTPRateLimitMiddleware(deps.Config),
		middleware.ErrorHandlerMiddleware(log),
	)

	NewAuthHandler(deps.Accounts, deps.Store).SetupRoutes(router)
	NewPublicHandler(deps.Posts, deps.Admin).SetupRoutes(router)

	dashboard := router.Group("/dashboard")
	dashboard.Use(
		middleware.RouteGuardMiddleware(deps.Guard, log),
		middleware.CredentialRejectionMiddleware(deps.Accounts, log),
	)
	NewDashboardHandler(
		deps.Store,
		deps.Resolver,
		deps.Posts,
		deps.Moderation,
		deps.Membership,
		deps.Admin,
		deps.Config.Membership.Price,
		log,
	).SetupRoutes(dashboard)

	if deps.Feed != nil {
		router.GET("/events", gin.WrapF(deps.Feed.HandleWebSocket))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    monitoring.StatusHealthy,
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
			"session":   deps.Store.Snapshot().State.String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if deps.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := deps.Health.CheckAll(ctx)
		code := http.StatusOK
		if status.Status != monitoring.StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	return router
}
