package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/medicine-cart/medicine_cart/internal/clock"
	"github.com/medicine-cart/medicine_cart/internal/config"
	"github.com/medicine-cart/medicine_cart/internal/infra"
	"github.com/medicine-cart/medicine_cart/internal/logging"
	"github.com/medicine-cart/medicine_cart/internal/notification"
	"github.com/medicine-cart/medicine_cart/internal/routes"
	"github.com/medicine-cart/medicine_cart/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited cleanly")
}

// run wires the backends and serves until a signal or a listener error.
func run(cfg config.Config, logger *slog.Logger) error {
	if cfg.EphemeralSecrets {
		logger.Warn("no APP_SECRET configured; using random secrets, tokens and codes will not survive a restart")
	}

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory repositories")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		var err error
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	} else {
		logger.Warn("REDIS_URL not set; using in-memory otp store")
	}

	var sender notification.Sender
	switch {
	case cfg.Twilio.Enabled():
		sender = notification.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	case cfg.IsDev():
		logger.Info("twilio not configured; codes are written to the log")
		sender = notification.NewLogSender(logger)
	default:
		return fmt.Errorf("twilio must be configured outside dev")
	}
	dispatcher := notification.NewDispatcher(sender, notification.DispatcherConfig{
		Workers:     cfg.Dispatch.Workers,
		QueueSize:   cfg.Dispatch.QueueSize,
		MaxAttempts: cfg.Dispatch.MaxAttempts,
		OnFailure: func(message notification.Message, err error) {
			logger.Error("notification dead-lettered",
				slog.String("kind", message.Kind),
				slog.String("destination", message.Destination),
				slog.Any("error", err))
		},
	}, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
		defer cancel()
		if err := dispatcher.Close(closeCtx); err != nil {
			logger.Warn("notification queue not drained", "error", err)
		}
	}()

	srv, err := server.New(routes.Deps{
		Cfg:        cfg,
		DB:         db,
		Cache:      cache,
		Logger:     logger,
		Dispatcher: dispatcher,
		Clock:      clock.New(),
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}
