package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forumclient/internal/core/services"
	httphandlers "forumclient/internal/handlers/http"
	"forumclient/internal/infrastructure/forumapi"
	"forumclient/internal/infrastructure/identity"
	"forumclient/internal/infrastructure/monitoring"
	"forumclient/internal/infrastructure/repositories"
	feed "forumclient/internal/infrastructure/signal"
	"forumclient/internal/infrastructure/transport"
	"forumclient/pkg/circuitbreaker"
	"forumclient/pkg/config"
	"forumclient/pkg/logger"
	"forumclient/pkg/sanitize"
	"forumclient/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger, err := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerEndpoint,
		Environment: "production",
		SampleRate:  1.0,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	collector := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)

	repoFactory := repositories.NewRepositoryFactory(cfg, log)
	defer repoFactory.Close()

	// Session: the store must be bound before the identity client starts so the
	// startup event is observed.
	identityClient, err := identity.NewClient(identity.Config{
		BaseURL:            cfg.Identity.BaseURL,
		Timeout:            cfg.Identity.Timeout,
		VerificationSecret: cfg.Identity.VerificationSecret,
		RefreshSkew:        cfg.Identity.RefreshSkew,
	}, log)
	if err != nil {
		log.Fatalw("failed to create identity client", "error", err)
	}
	defer identityClient.Close()

	store := services.NewSessionStore(log, collector)
	if err := store.Bind(identityClient); err != nil {
		log.Fatalw("failed to bind session store", "error", err)
	}

	transportOpts := []transport.Option{transport.WithMetrics(collector)}
	if cfg.RateLimiting.Enabled && cfg.RateLimiting.Outbound.RequestsPerSecond > 0 {
		transportOpts = append(transportOpts, transport.WithLimiter(
			rate.NewLimiter(rate.Limit(cfg.RateLimiting.Outbound.RequestsPerSecond), cfg.RateLimiting.Outbound.Burst),
		))
	}
	secure := transport.New(log, transportOpts...)
	// The credential swap completes before the new snapshot is readable.
	store.BeforePublish(secure.OnSessionChange)

	var breaker *circuitbreaker.CircuitBreaker
	if cfg.CircuitBreaker.Enabled {
		cbCfg := circuitbreaker.DefaultConfig()
		cbCfg.FailureThreshold = cfg.CircuitBreaker.MaxFailures
		cbCfg.Timeout = cfg.CircuitBreaker.ResetTimeout
		cbCfg.IsFailure = forumapi.IsRemoteFailure
		breaker = circuitbreaker.New(cbCfg)
		breaker.OnStateChange(func(from, to circuitbreaker.State) {
			log.Warnw("Forum API circuit breaker state changed", "from", from.String(), "to", to.String())
		})
	}

	api, err := forumapi.NewClient(forumapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Secure:  secure,
		Breaker: breaker,
	}, log)
	if err != nil {
		log.Fatalw("failed to create forum API client", "error", err)
	}

	resolver := services.NewProfileResolver(api, repoFactory.CreateProfileCache(), log, collector)
	store.Subscribe(resolver.OnSessionChange)

	sanitizer := sanitize.New()
	guard := services.NewRouteGuard(store, resolver, identityClient, services.DefaultRoutes(), log, collector)

	wsServer := feed.NewWebSocketServer(store, log)
	wsServer.SetPingInterval(cfg.Server.PingInterval)
	wsServer.SetPongTimeout(cfg.Server.PongTimeout)
	defer wsServer.Close()

	health := monitoring.NewHealthChecker()
	health.AddSessionCheck(store, cfg.Monitoring.HealthInterval)
	health.AddHTTPCheck("forum_api", cfg.API.BaseURL+"/tags", nil, cfg.Monitoring.HealthInterval, 2*time.Second)
	if client := repoFactory.RedisClient(); client != nil {
		health.AddRedisCheck(client, cfg.Monitoring.HealthInterval, 2*time.Second)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	health.StartBackgroundChecks(ctx)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := httphandlers.Dependencies{
		Config:     cfg,
		Logger:     log,
		Store:      store,
		Resolver:   resolver,
		Guard:      guard,
		Accounts:   services.NewAccountService(identityClient, api, log),
		Posts:      services.NewPostService(api, api, services.NewQuotaGate(cfg.Quota.FreePostLimit), sanitizer, log, collector),
		Moderation: services.NewModerationService(api, api, log, collector),
		Membership: services.NewMembershipService(api, api, resolver, cfg.Membership.Price, log),
		Admin:      services.NewAdminService(api, api, sanitizer, log),
		Feed:       wsServer,
		Health:     health,
		Recorder:   collector,
		AccessLog:  zapLogger,
	}
	if cfg.Monitoring.PrometheusEnabled {
		deps.MetricsHandler = promhttp.Handler()
		log.Info("Prometheus metrics enabled")
	}
	router := httphandlers.NewRouter(deps)

	if err := identityClient.Start(ctx); err != nil {
		log.Fatalw("failed to start identity client", "error", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("Starting forum gateway", "address", cfg.Server.Address, "api", cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down forum gateway...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	store.Unbind()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}
	log.Info("Forum gateway stopped")
}
