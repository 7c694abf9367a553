package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// KeyframeRepository описывает требования к хранилищу кифреймов
type KeyframeRepository interface {
	Insert(ctx context.Context, runID string, tms int64, kind string, data json.RawMessage) (int64, error)
	ListByRun(ctx context.Context, runID string) ([]domain.Keyframe, error)
	Get(ctx context.Context, runID string, id int64) (json.RawMessage, error)
}

type KeyframeService struct {
	repo   KeyframeRepository
	logger *zap.Logger
}

func NewKeyframeService(repo KeyframeRepository, logger *zap.Logger) *KeyframeService {
	return &KeyframeService{repo: repo, logger: logger.Named("keyframe-service")}
}

func (s *KeyframeService) Add(ctx context.Context, runID string, tms int64, kind string, data json.RawMessage) (int64, error) {
	if kind == "" {
		kind = "snapshot"
	}
	return s.repo.Insert(ctx, runID, tms, kind, data)
}

func (s *KeyframeService) List(ctx context.Context, runID string) ([]domain.Keyframe, error) {
	frames, err := s.repo.ListByRun(ctx, runID)
	if err != nil {
		s.logger.Error("failed to list keyframes", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}
	return frames, nil
}

func (s *KeyframeService) Get(ctx context.Context, runID string, id int64) (json.RawMessage, error) {
	return s.repo.Get(ctx, runID, id)
}
