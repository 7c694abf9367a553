package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
	"github.com/xela07ax/afr-platform/internal/infra"
	"github.com/xela07ax/afr-platform/internal/metrics"
)

// AnalyticsRepository описывает требования к хранилищу агрегатов
type AnalyticsRepository interface {
	Overview(ctx context.Context) (*domain.Overview, error)
	Providers(ctx context.Context) ([]domain.ProviderStats, error)
	Performance(ctx context.Context) ([]domain.PerformanceBucket, error)
	Correlations(ctx context.Context) (*domain.CorrelationStats, error)
	Sessions(ctx context.Context) ([]domain.SessionReport, error)
}

type AnalyticsService struct {
	repo        AnalyticsRepository
	rdb         *redis.Client
	overviewTTL time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewAnalyticsService(
	repo AnalyticsRepository,
	rdb *redis.Client,
	cacheCfg infra.CacheConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		repo:        repo,
		rdb:         rdb,
		overviewTTL: cacheCfg.OverviewTTL,
		metrics:     m,
		logger:      logger.Named("analytics-service"),
	}
}

// Overview — сквозные счетчики. Кэшируем в Redis, чтобы не нагружать
// Postgres тяжелыми аналитическими запросами на каждое открытие дашборда.
func (s *AnalyticsService) Overview(ctx context.Context) (*domain.Overview, error) {
	if cached, err := s.rdb.Get(ctx, infra.RedisKeyAnalyticsOverview).Bytes(); err == nil {
		var o domain.Overview
		if err := json.Unmarshal(cached, &o); err == nil {
			s.metrics.CacheHits.WithLabelValues("overview").Inc()
			return &o, nil
		}
	}
	s.metrics.CacheMisses.WithLabelValues("overview").Inc()

	o, err := s.repo.Overview(ctx)
	if err != nil {
		s.logger.Error("failed to build overview", zap.Error(err))
		return nil, fmt.Errorf("service: could not build overview: %w", err)
	}

	if payload, err := json.Marshal(o); err == nil {
		if err := s.rdb.Set(ctx, infra.RedisKeyAnalyticsOverview, payload, s.overviewTTL).Err(); err != nil {
			s.logger.Warn("overview cache write failed", zap.Error(err))
		}
	}
	return o, nil
}

func (s *AnalyticsService) Providers(ctx context.Context) ([]domain.ProviderStats, error) {
	return s.repo.Providers(ctx)
}

func (s *AnalyticsService) Performance(ctx context.Context) ([]domain.PerformanceBucket, error) {
	return s.repo.Performance(ctx)
}

func (s *AnalyticsService) Correlations(ctx context.Context) (*domain.CorrelationStats, error) {
	return s.repo.Correlations(ctx)
}

func (s *AnalyticsService) Sessions(ctx context.Context) ([]domain.SessionReport, error) {
	sessions, err := s.repo.Sessions(ctx)
	if err != nil {
		s.logger.Error("failed to build session report", zap.Error(err))
		return nil, fmt.Errorf("service: could not build session report: %w", err)
	}
	if sessions == nil {
		return []domain.SessionReport{}, nil
	}
	return sessions, nil
}
