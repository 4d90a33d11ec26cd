/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load configuration (env / .env)
  2. Build the zap logger
  3. Open the SQLite store
  4. Wire notifier, issuer, evaluator, runner
  5. Start the batch scheduler (unless disabled)
  6. Serve HTTP with graceful shutdown

CONFIGURATION (WFE_ env prefix):
  WFE_PORT               HTTP port (default 8080)
  WFE_DB_PATH            SQLite path, ":memory:" for in-memory (default workforce.db)
  WFE_BATCH_INTERVAL     scheduler interval (default 168h)
  WFE_SCHEDULER_ENABLED  set false to disable the scheduler
  WFE_SENDGRID_API_KEY   enables email notifications; console otherwise
  WFE_LOG_LEVEL          debug|info|warn|error (default info)
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lifegate/workforce-engine/api"
	"github.com/lifegate/workforce-engine/config"
	"github.com/lifegate/workforce-engine/engine"
	"github.com/lifegate/workforce-engine/factory"
	"github.com/lifegate/workforce-engine/logging"
	"github.com/lifegate/workforce-engine/notify"
	"github.com/lifegate/workforce-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	var notifier engine.Notifier
	if cfg.SendgridAPIKey != "" {
		notifier = notify.NewSendgrid(cfg.SendgridAPIKey, cfg.AppName, cfg.FromName, cfg.FromEmail)
	} else {
		logger.Info("no sendgrid key configured, notifications go to the log")
		notifier = notify.NewConsole(logger)
	}

	issuer := engine.NewIssuer(store, store, notifier, logger)
	evaluator := engine.NewEvaluator(store, store, issuer)
	runner := engine.NewRunner(store, evaluator, logger)
	runner.WorkerTimeout = cfg.PerWorkerTimeout

	numbers := factory.NewWorkerNumberGenerator(cfg.WorkerNumberPrefix, factory.DefaultTeamCodes)
	handler := api.NewHandler(store, evaluator, runner, numbers, logger)

	scheduler := api.NewBatchScheduler(store, runner, logger)
	scheduler.Interval = cfg.BatchInterval
	if cfg.SchedulerEnabled {
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
