package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/api/handler"
	"github.com/xela07ax/afr-platform/internal/api/server"
	"github.com/xela07ax/afr-platform/internal/api/service"
	"github.com/xela07ax/afr-platform/internal/infra"
	"github.com/xela07ax/afr-platform/internal/metrics"
	"github.com/xela07ax/afr-platform/internal/repository/postgres"
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

	// 2. Инфраструктура и ресурсы
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		logger.Fatal("database open failed", zap.Error(err))
	}
	defer db.Close()

	// Проверяем соединение и накатываем схему с таймаутом
	initCtx, initCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(initCtx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	if err := postgres.InitSchema(initCtx, db); err != nil {
		logger.Fatal("schema init failed", zap.Error(err))
	}
	initCancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	// Метрики
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	// 3. Инициализация слоев (Dependency Injection)
	runRepo := postgres.NewRunRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	keyframeRepo := postgres.NewKeyframeRepo(db)
	analyticsRepo := postgres.NewAnalyticsRepo(db)

	ingestService := service.NewIngestService(runRepo, eventRepo, m, logger)
	runService := service.NewRunService(runRepo, eventRepo, rdb, cfg.Cache, m, logger)
	keyframeService := service.NewKeyframeService(keyframeRepo, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, rdb, cfg.Cache, m, logger)

	apiServer := server.NewAPIServer(
		cfg,
		logger,
		promReg,
		handler.NewIngestHandler(ingestService, logger),
		handler.NewRunHandler(runService, logger),
		handler.NewKeyframeHandler(keyframeService, logger),
		handler.NewAnalyticsHandler(analyticsService, logger),
	)

	// 4. HTTP Server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 5. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("AFR API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("AFR API stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("AFR API exited properly")
}
