package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
	"github.com/xela07ax/afr-platform/internal/metrics"
)

// RunCreator описывает требования ингеста к хранилищу ранов
type RunCreator interface {
	Create(ctx context.Context, id, url string) error
}

// EventWriter описывает требования ингеста к хранилищу событий
type EventWriter interface {
	InsertBatch(ctx context.Context, runID string, rows []domain.EventRow) error
}

type IngestService struct {
	runs    RunCreator
	events  EventWriter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewIngestService(runs RunCreator, events EventWriter, m *metrics.Metrics, logger *zap.Logger) *IngestService {
	return &IngestService{
		runs:    runs,
		events:  events,
		metrics: m,
		logger:  logger.Named("ingest-service"),
	}
}

// Ingest принимает батч от capture-адаптера.
// Контракт: батч либо записывается целиком, либо не записывается вовсе.
// Если клиент не принес runId (первый батч сессии), ран минтится здесь,
// и его id возвращается клиенту для последующих батчей.
func (s *IngestService) Ingest(ctx context.Context, req *domain.IngestRequest) (string, error) {
	rows, err := req.Normalize()
	if err != nil {
		s.metrics.RejectedBatches.Inc()
		s.logger.Warn("ingest batch rejected", zap.Error(err))
		return "", err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
		var url string
		if req.Context != nil {
			url = req.Context.URL
		}
		if err := s.runs.Create(ctx, runID, url); err != nil {
			return "", fmt.Errorf("ingest: run creation failed: %w", err)
		}
		s.logger.Info("run started", zap.String("run_id", runID), zap.String("url", url))
	}

	if err := s.events.InsertBatch(ctx, runID, rows); err != nil {
		return "", fmt.Errorf("ingest: batch persist failed: %w", err)
	}

	s.metrics.BatchSize.Observe(float64(len(rows)))
	for _, row := range rows {
		s.metrics.IngestedEvents.WithLabelValues(string(row.Kind)).Inc()
	}

	s.logger.Debug("batch ingested",
		zap.String("run_id", runID),
		zap.Int("events", len(rows)))
	return runID, nil
}
