package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// RunReader Описываем, что нам нужно от сервиса ранов
type RunReader interface {
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*domain.Run, error)
	Events(ctx context.Context, runID string, limit, offset int) ([]domain.Event, error)
	Diff(ctx context.Context, runID, againstID string) (*domain.DiffResult, error)
	LastKnownGood(ctx context.Context, runID string) (*domain.LastKnownGood, error)
}

type RunHandler struct {
	service RunReader
	logger  *zap.Logger
}

func NewRunHandler(s RunReader, logger *zap.Logger) *RunHandler {
	return &RunHandler{service: s, logger: logger.Named("run-handler")}
}

// parseLimit нормализует пагинацию: дефолт и жесткий потолок.
func parseLimit(r *http.Request, def, max int) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List возвращает раны от новых к старым
// GET /runs?limit=&offset=
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimit(r, 100, 1000)
	runs, err := h.service.ListRuns(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// Get отдает детали одного рана
// GET /runs/{id}
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Events отдает таймлайн рана с серверной корреляцией join-on-read
// GET /runs/{id}/events?limit=&offset=
func (h *RunHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimit(r, 1000, 10000)
	events, err := h.service.Events(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Diff считает семантический дифф против указанного рана
// GET /runs/{id}/diff?against=
func (h *RunHandler) Diff(w http.ResponseWriter, r *http.Request) {
	against := r.URL.Query().Get("against")
	if against == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "against parameter required"})
		return
	}

	res, err := h.service.Diff(r.Context(), chi.URLParam(r, "id"), against)
	if err != nil {
		h.logger.Warn("diff failed",
			zap.String("run_id", chi.URLParam(r, "id")),
			zap.String("against", against),
			zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LastGreen подбирает baseline-ран для сравнения
// GET /runs/{id}/last-green
func (h *RunHandler) LastGreen(w http.ResponseWriter, r *http.Request) {
	lkg, err := h.service.LastKnownGood(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lkg)
}
