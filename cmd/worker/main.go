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

	"github.com/kirillkom/eco-invoice-tracker/internal/bootstrap"
	"github.com/kirillkom/eco-invoice-tracker/internal/config"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/observability/logging"
	"github.com/kirillkom/eco-invoice-tracker/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.NewWithOptions(ctx, cfg, bootstrap.Options{
		OnQueueDelivery: func(lag time.Duration) {
			workerMetrics.ObserveQueueLag(serviceName, lag)
		},
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	app.ProcessUC.SetObserver(func(_ *domain.Invoice, result domain.ProcessingResult) {
		if !result.Succeeded() || result.Impact == nil {
			return
		}
		materials := make([]string, 0, len(result.Items))
		for _, item := range result.Items {
			materials = append(materials, item.MaterialType)
		}
		workerMetrics.ObserveItems(serviceName, materials, result.Impact.TotalCarbonFootprintKg.InexactFloat64())
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = app.Queue.SubscribeInvoiceUploaded(ctx, func(handlerCtx context.Context, invoiceID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, cfg.WorkerProcessTimeout)
		defer cancel()

		workerMetrics.StartInvoice()
		start := time.Now()
		err := app.ProcessUC.ProcessByID(processCtx, invoiceID)
		workerMetrics.FinishInvoice(serviceName, time.Since(start), err)
		return err
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
