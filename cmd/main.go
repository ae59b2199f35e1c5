package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/YelzhanWeb/errwatch/internal/adapter/logger"
	"github.com/YelzhanWeb/errwatch/internal/adapter/metrics"
	"github.com/YelzhanWeb/errwatch/internal/adapter/postgres"
	"github.com/YelzhanWeb/errwatch/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/errwatch/internal/adapter/sms"
	"github.com/YelzhanWeb/errwatch/internal/app/history"
	"github.com/YelzhanWeb/errwatch/internal/app/reporter"
	"github.com/YelzhanWeb/errwatch/internal/config"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"

	amqpAdapter "github.com/YelzhanWeb/errwatch/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/errwatch/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: reporter-service, history-service, report-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 3000, "HTTP port")
	prefetch := flag.Int("prefetch", 10, "RabbitMQ prefetch count (for report-subscriber)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lgr := logger.NewWithWriter(*mode, os.Stdout, logger.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "reporter-service":
		err = runReporterService(ctx, cfg, lgr, *port)

	case "history-service":
		err = runHistoryService(ctx, cfg, lgr, *port)

	case "report-subscriber":
		err = runReportSubscriber(ctx, cfg, lgr, *prefetch)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	if err != nil {
		lgr.Error("service_failed", "Service stopped with error", "runtime", nil, err)
		os.Exit(1)
	}
}

func runReporterService(ctx context.Context, cfg *config.Config, lgr logger.Logger, port int) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := reporter.Options{
		MaxDepth: cfg.Reporter.MaxDepth,
		Metrics:  metrics.NewReporter(reg),
	}

	var historyHandler *httpAdapter.HistoryHandler

	if cfg.Reporter.Archive {
		db, err := connectDatabase(ctx, cfg, lgr)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := postgres.NewReportRepository(db)
		opts.Sinks = append(opts.Sinks, reporter.NewArchiveSink(repo, lgr))
		historyHandler = httpAdapter.NewHistoryHandler(history.NewService(repo, lgr), lgr)
	}

	if cfg.Reporter.Publish {
		mqConn, err := connectBroker(cfg, lgr)
		if err != nil {
			return err
		}
		defer mqConn.Close()

		opts.Sinks = append(opts.Sinks, reporter.NewPublishSink(rabbitmq.NewPublisher(mqConn), lgr))
	}

	sender := sms.NewClient(cfg.Alert.Endpoint, cfg.Alert.Timeout)
	svc := reporter.NewService(lgr, sender, cfg.Alert, opts)

	handler := httpAdapter.NewRouter(
		httpAdapter.NewReportHandler(svc, lgr),
		historyHandler,
		metrics.Handler(reg),
		lgr,
	)

	lgr.Info("service_started", fmt.Sprintf("Reporter Service started on port %d", port), "startup", map[string]interface{}{
		"port":    port,
		"archive": cfg.Reporter.Archive,
		"publish": cfg.Reporter.Publish,
		"alerts":  cfg.Alert.Endpoint != "",
	})

	err := serveHTTP(ctx, handler, port, lgr)
	if err != nil {
		svc.Report(context.Background(), reporter.WithOrigin(err, "reporter-service"))
	}
	return err
}

func runHistoryService(ctx context.Context, cfg *config.Config, lgr logger.Logger, port int) error {
	db, err := connectDatabase(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer db.Close()

	historyService := history.NewService(postgres.NewReportRepository(db), lgr)
	handler := httpAdapter.NewRouter(nil, httpAdapter.NewHistoryHandler(historyService, lgr), nil, lgr)

	lgr.Info("service_started", fmt.Sprintf("History Service started on port %d", port), "startup", map[string]interface{}{
		"port": port,
	})

	return serveHTTP(ctx, handler, port, lgr)
}

func runReportSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger, prefetch int) error {
	mqConn, err := connectBroker(cfg, lgr)
	if err != nil {
		return err
	}
	defer mqConn.Close()

	var repo interfaces.ReportRepository
	if cfg.Reporter.Archive {
		db, err := connectDatabase(ctx, cfg, lgr)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = postgres.NewReportRepository(db)
	}

	consumer := rabbitmq.NewConsumer(mqConn, prefetch, lgr)
	reportHandler := amqpAdapter.NewReportHandler(repo, lgr, os.Stdout)

	lgr.Info("service_started", "Report Subscriber started", "startup", map[string]interface{}{
		"exchange": rabbitmq.ReportsExchange,
		"archive":  repo != nil,
	})

	err = consumer.ConsumeReports(ctx, reportHandler.HandleReport)
	lgr.Info("shutdown_initiated", "Shutting down Report Subscriber", "shutdown", nil)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func connectDatabase(ctx context.Context, cfg *config.Config, lgr logger.Logger) (postgres.DB, error) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return db, nil
}

func connectBroker(cfg *config.Config, lgr logger.Logger) (rabbitmq.Connection, error) {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return mqConn, nil
}

// serveHTTP blocks until ctx is cancelled, then drains in-flight requests.
func serveHTTP(ctx context.Context, handler http.Handler, port int, lgr logger.Logger) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lgr.Info("shutdown_initiated", "Shutting down HTTP server", "shutdown", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		return err
	}
	return nil
}
