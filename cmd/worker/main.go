package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/bootstrap"
	"github.com/kirillkom/docsearch-summarizer/internal/config"
	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/observability/logging"
	"github.com/kirillkom/docsearch-summarizer/internal/observability/metrics"
)

const (
	serviceName   = "worker"
	importTimeout = 5 * time.Minute
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	worker, err := bootstrap.NewWorker(cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer worker.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = worker.Queue.SubscribeUploaded(ctx, func(handlerCtx context.Context, event domain.UploadedEvent) error {
		if !event.At.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(event.At))
		}

		importCtx, cancel := context.WithTimeout(handlerCtx, importTimeout)
		defer cancel()

		workerMetrics.StartImport()
		start := time.Now()
		err := worker.ImportUC.ImportUploaded(importCtx, event)
		workerMetrics.FinishImport(serviceName, time.Since(start), err)
		if err == nil {
			logger.Info("upload_imported", "upload_id", event.UploadID, "uri", event.URI)
		}
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
