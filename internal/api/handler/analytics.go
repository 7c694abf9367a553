package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// AnalyticsProvider Описываем, что нам нужно от сервиса аналитики
type AnalyticsProvider interface {
	Overview(ctx context.Context) (*domain.Overview, error)
	Providers(ctx context.Context) ([]domain.ProviderStats, error)
	Performance(ctx context.Context) ([]domain.PerformanceBucket, error)
	Correlations(ctx context.Context) (*domain.CorrelationStats, error)
	Sessions(ctx context.Context) ([]domain.SessionReport, error)
}

type AnalyticsHandler struct {
	service AnalyticsProvider
	logger  *zap.Logger
}

func NewAnalyticsHandler(s AnalyticsProvider, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: s, logger: logger.Named("analytics-handler")}
}

// GET /analytics/overview
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// GET /analytics/providers
func (h *AnalyticsHandler) Providers(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Providers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /analytics/performance
func (h *AnalyticsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.Performance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// GET /analytics/correlations
func (h *AnalyticsHandler) Correlations(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Correlations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /reports/sessions
func (h *AnalyticsHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.Sessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}
