package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/capture"
	"github.com/xela07ax/afr-platform/internal/infra"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// 2. Сборка пайплайна захвата: tracker -> spooler -> API client
	client := capture.NewClient(cfg.Relay.APIURL, logger)
	spooler := capture.NewSpooler(cfg.Relay, client, logger)
	tracker := capture.NewTracker()
	relay := capture.NewRelay(tracker, spooler, client, logger)

	spooler.Start()

	srv := &http.Server{
		Addr:         cfg.Relay.ListenAddr,
		Handler:      relay.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// 3. Graceful Shutdown: сначала перестаем принимать события,
	// потом даем спулеру дописать хвост сессии в API.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("capture relay started",
			zap.String("addr", srv.Addr),
			zap.String("api", cfg.Relay.APIURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("capture relay stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	// Drain: финальный flush буфера, чтобы не потерять конец сессии
	spooler.Stop()
	logger.Info("capture relay exited properly")
}
