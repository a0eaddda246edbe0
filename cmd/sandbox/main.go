package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/luxejewel-storefront/internal/api"
	"github.com/example/luxejewel-storefront/internal/auth"
	"github.com/example/luxejewel-storefront/internal/config"
	"github.com/example/luxejewel-storefront/internal/sandbox"
	log "github.com/sirupsen/logrus"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.LoadSandbox()
	if err != nil {
		log.WithError(err).Fatal("Invalid sandbox configuration")
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.WithError(err).Fatal("Invalid log settings")
	}
	entry := logger.WithField("component", "sandbox-main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payments := sandbox.NewPaymentGateway(cfg.KeyID, cfg.KeySecret)
	svc := sandbox.NewService(sandbox.NewStore(), auth.NewPasswordHasher(cfg.BcryptCost), payments, cfg.Currency, logger)

	if err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		entry.WithError(err).Fatal("Failed to create admin user")
	}
	if cfg.Seed {
		svc.SeedProducts(ctx)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	router := api.NewRouter(
		api.NewHandlers(svc, jwtService, logger),
		api.NewGatewayHandlers(payments, logger),
		jwtService,
		logger,
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		entry.WithFields(log.Fields{
			"addr":     cfg.Addr,
			"key_id":   cfg.KeyID,
			"currency": cfg.Currency,
		}).Info("Sandbox backend started")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			entry.WithError(err).Fatal("Server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	entry.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		entry.WithError(err).Warn("Graceful shutdown failed")
	}
}
