package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendly/internal/amqp"
	"spendly/internal/cli"
	"spendly/internal/log"
	"spendly/internal/metrics"
	gsheet "spendly/internal/sheets/google"
	"spendly/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("info", log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Export configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger = cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting spendly-worker")

	ctx := context.Background()
	m := metrics.New(true)

	// Exported message IDs are remembered in the local store.
	store, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open export state store", log.FieldError, err.Error(), "store", cfg.StoreBackend)
		os.Exit(1)
	}

	ledger, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		TokenFile:       cfg.GoogleOAuthTokenFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	exporter := worker.NewExportWorker(ledger, store.Store, logger)
	handle := func(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
		if err := exporter.HandleTransactionRecorded(ctx, msg); err != nil {
			m.RecordExport("failed")
			return err
		}
		m.RecordExport("exported")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	probe := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := probe.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener failed", log.FieldError, err.Error(), "port", cfg.Port)
		}
	}()

	runCtx, done := cli.GracefulShutdown(logger, 15*time.Second, func(ctx context.Context) {
		_ = probe.Shutdown(ctx)
	})

	consume(runCtx, logger, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, handle)

	cli.WaitForShutdown(runCtx, done)
	if store.Cleanup != nil {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close export state store", log.FieldError, err.Error())
		}
	}
	logger.Info("Worker stopped gracefully")
}

// consume keeps a consumer running until ctx ends, reconnecting whenever the
// broker drops the channel.
func consume(ctx context.Context, logger *log.Logger, url, exchange, queue string, handle amqp.Handler) {
	for ctx.Err() == nil {
		client, err := amqp.ConnectWithRetry(ctx, url, exchange, queue, logger)
		if err != nil {
			return
		}
		err = client.Consume(ctx, handle)
		_ = client.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Warn("Message consumption stopped, reconnecting", log.FieldError, err.Error())
	}
}
