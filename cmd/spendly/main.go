package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendly/internal/amqp"
	"spendly/internal/auth"
	"spendly/internal/backend"
	"spendly/internal/cache"
	"spendly/internal/cli"
	"spendly/internal/core"
	apphttp "spendly/internal/http"
	"spendly/internal/log"
	"spendly/internal/metrics"
	"spendly/internal/middleware/trace"
	"spendly/internal/pages"
	"spendly/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("info", log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	ctx := context.Background()
	m := metrics.New(true)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)

	store, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open session store", log.FieldError, err.Error(), "store", cfg.StoreBackend)
		os.Exit(1)
	}

	// The gateway reads the bearer token from the controller built on top of it.
	var ctrl *auth.Controller
	gw, err := factory.CreateGateway(ctx, bcfg, backend.GatewayDeps{
		Token:     func(ctx context.Context) string { return ctrl.Token(ctx) },
		Observer:  m,
		RequestID: trace.GetRequestID,
	})
	if err != nil {
		logger.Error("Failed to initialize backend gateway", log.FieldError, err.Error(), "backend", cfg.APIBackend)
		os.Exit(1)
	}
	ctrl = auth.New(gw.Gateway, session.NewStore(store.Store, logger), logger)
	go ctrl.Resolve(ctx)

	var (
		publisher  pages.EventPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPEnabled() {
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		amqpClient, err = amqp.ConnectWithRetry(connectCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		cancel()
		if err != nil {
			logger.Warn("AMQP unavailable, transaction events will not be exported", log.FieldError, err.Error())
		} else {
			publisher = amqpClient
		}
	}

	categories := cache.NewLRUCache[[]string](64, 10*time.Minute)
	caches := cache.NewManager(logger)
	caches.Register(categories)
	caches.StartCleanup(ctx, time.Minute)

	set := pages.NewSet(pages.Deps{
		Gateway:       gw.Gateway,
		Identity:      ctrl,
		DefaultUserID: core.UserID(cfg.DefaultUserID),
		Publisher:     publisher,
		Categories:    categories,
		Logger:        logger,
	})

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:               ctrl,
		Pages:              set,
		Prefs:              session.NewPreferences(store.Store, logger),
		Ping:               store.Ping,
		Metrics:            m,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		caches.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if gw.Cleanup != nil {
			_ = gw.Cleanup()
		}
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Failed to close session store", log.FieldError, err.Error())
			}
		}
	})

	logger.Info("Starting spendly server",
		"port", cfg.Port,
		"env", cfg.AppEnv,
		"backend", cfg.APIBackend,
		"store", cfg.StoreBackend,
		"amqp", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
