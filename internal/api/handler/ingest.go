package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// Ingestor Описываем, что нам нужно от сервиса
type Ingestor interface {
	Ingest(ctx context.Context, req *domain.IngestRequest) (string, error)
}

type IngestHandler struct {
	service Ingestor
	logger  *zap.Logger
}

func NewIngestHandler(s Ingestor, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{service: s, logger: logger.Named("ingest-handler")}
}

type ingestResponse struct {
	OK    bool   `json:"ok"`
	RunID string `json:"runId"`
}

// Ingest принимает батч событий от capture-адаптера.
// POST /ingest
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req domain.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body: %v", domain.ErrValidation, err))
		return
	}

	runID, err := h.service.Ingest(r.Context(), &req)
	if err != nil {
		h.logger.Warn("ingest failed", zap.Error(err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{OK: true, RunID: runID})
}
