package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"forumclient/internal/devstack"
	"forumclient/pkg/config"
	"forumclient/pkg/logger"

	"github.com/gin-gonic/gin"
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

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack := devstack.New(devstack.Config{
		JWTSecret:       cfg.DevStack.JWTSecret,
		AccessTokenTTL:  cfg.DevStack.AccessTokenTTL,
		RefreshTokenTTL: cfg.DevStack.RefreshTokenTTL,
		AdminEmail:      cfg.DevStack.AdminEmail,
		FreePostLimit:   cfg.Quota.FreePostLimit,
	}, log)

	srv := &http.Server{
		Addr:    cfg.DevStack.Address,
		Handler: stack.Handler(),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("Starting forum devstack", "address", cfg.DevStack.Address, "admin_email", cfg.DevStack.AdminEmail)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Devstack failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("Error during devstack shutdown", "error", err)
	}
}
