package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/correlate"
	"github.com/xela07ax/afr-platform/internal/diff"
	"github.com/xela07ax/afr-platform/internal/domain"
	"github.com/xela07ax/afr-platform/internal/infra"
	"github.com/xela07ax/afr-platform/internal/metrics"
)

// RunRepository описывает требования сервиса к хранилищу ранов
type RunRepository interface {
	Get(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Run, error)
	FindLastKnownGood(ctx context.Context, current *domain.Run) (*domain.RunStats, error)
}

// EventRepository описывает требования сервиса к хранилищу событий
type EventRepository interface {
	ListByRun(ctx context.Context, runID string, limit, offset int) ([]domain.Event, error)
	ListFingerprints(ctx context.Context, runID string) ([]domain.FingerprintPayload, error)
}

type RunService struct {
	runs    RunRepository
	events  EventRepository
	rdb     *redis.Client
	diffTTL time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewRunService(
	runs RunRepository,
	events EventRepository,
	rdb *redis.Client,
	cacheCfg infra.CacheConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RunService {
	return &RunService{
		runs:    runs,
		events:  events,
		rdb:     rdb,
		diffTTL: cacheCfg.DiffTTL,
		metrics: m,
		logger:  logger.Named("run-service"),
	}
}

func (s *RunService) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	return s.runs.Get(ctx, id)
}

// ListRuns возвращает раны от новых к старым.
// Гарантируем фронту пустой массив [], а не null, если ранов еще нет.
func (s *RunService) ListRuns(ctx context.Context, limit, offset int) ([]*domain.Run, error) {
	runs, err := s.runs.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		return nil, fmt.Errorf("service: could not fetch runs: %w", err)
	}
	if runs == nil {
		return []*domain.Run{}, nil
	}
	return runs, nil
}

// Events отдает таймлайн рана с серверными correlationServer-аннотациями.
// Аннотации вычисляются заново на каждом чтении и никогда не пишутся
// обратно в хранилище — события в сторе неизменны.
func (s *RunService) Events(ctx context.Context, runID string, limit, offset int) ([]domain.Event, error) {
	events, err := s.events.ListByRun(ctx, runID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list events", zap.String("run_id", runID), zap.Error(err))
		return nil, fmt.Errorf("service: could not fetch events: %w", err)
	}
	return correlate.Annotate(events), nil
}

// Diff сравнивает финальные состояния элементов двух ранов.
// runID — кандидат (B), againstID — baseline (A). Результат кэшируется
// в Redis на короткий TTL: вычисление чистое, кэш — только оптимизация.
func (s *RunService) Diff(ctx context.Context, runID, againstID string) (*domain.DiffResult, error) {
	cacheKey := infra.DiffCacheKey(runID, againstID)
	if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var res domain.DiffResult
		if err := json.Unmarshal(cached, &res); err == nil {
			s.metrics.CacheHits.WithLabelValues("diff").Inc()
			return &res, nil
		}
	}
	s.metrics.CacheMisses.WithLabelValues("diff").Inc()

	started := time.Now()

	// Дифф осмыслен, только если у обоих ранов есть хоть один fingerprint.
	// Это NotFound, а не «пустой дифф»: пустой DiffResult — валидный успех
	// сравнения, а здесь сравнивать нечего.
	fpsB, err := s.events.ListFingerprints(ctx, runID)
	if err != nil {
		return nil, err
	}
	fpsA, err := s.events.ListFingerprints(ctx, againstID)
	if err != nil {
		return nil, err
	}
	if len(fpsA) == 0 || len(fpsB) == 0 {
		return nil, fmt.Errorf("no dom fingerprints for diff: %w", domain.ErrNotFound)
	}

	res := diff.Diff(diff.Reduce(fpsA), diff.Reduce(fpsB))
	res.Run1ID = runID
	res.Run2ID = againstID

	s.metrics.DiffDuration.Observe(time.Since(started).Seconds())
	s.logger.Debug("diff computed",
		zap.String("run_id", runID),
		zap.String("against", againstID),
		zap.Int("total_changes", res.Summary.TotalChanges))

	if payload, err := json.Marshal(res); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, payload, s.diffTTL).Err(); err != nil {
			// Redis недоступен — просто идем дальше, истина в Postgres.
			s.logger.Warn("diff cache write failed", zap.Error(err))
		}
	}
	return res, nil
}

// LastKnownGood подбирает baseline: самый свежий предыдущий ран с тем же URL.
func (s *RunService) LastKnownGood(ctx context.Context, runID string) (*domain.LastKnownGood, error) {
	current, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	prior, err := s.runs.FindLastKnownGood(ctx, current)
	if err != nil {
		return nil, err
	}
	return &domain.LastKnownGood{LastGreenRun: prior, CurrentRun: current}, nil
}
