package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// KeyframeStore Описываем, что нам нужно от сервиса кифреймов
type KeyframeStore interface {
	Add(ctx context.Context, runID string, tms int64, kind string, data json.RawMessage) (int64, error)
	List(ctx context.Context, runID string) ([]domain.Keyframe, error)
	Get(ctx context.Context, runID string, id int64) (json.RawMessage, error)
}

type KeyframeHandler struct {
	service KeyframeStore
	logger  *zap.Logger
}

func NewKeyframeHandler(s KeyframeStore, logger *zap.Logger) *KeyframeHandler {
	return &KeyframeHandler{service: s, logger: logger.Named("keyframe-handler")}
}

type keyframeUpload struct {
	TMs  int64           `json:"t_ms"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type keyframeCreated struct {
	ID      int64  `json:"id"`
	BlobURL string `json:"blob_url"`
}

// Add пишет кифрейм рана
// POST /runs/{id}/keyframes
func (h *KeyframeHandler) Add(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	var req keyframeUpload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body: %v", domain.ErrValidation, err))
		return
	}

	id, err := h.service.Add(r.Context(), runID, req.TMs, req.Kind, req.Data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, keyframeCreated{
		ID:      id,
		BlobURL: fmt.Sprintf("/runs/%s/keyframes/%d", runID, id),
	})
}

// List отдает кифреймы рана по возрастанию времени
// GET /runs/{id}/keyframes
func (h *KeyframeHandler) List(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	frames, err := h.service.List(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}

	type item struct {
		ID      int64           `json:"id"`
		TMs     int64           `json:"t_ms"`
		Kind    string          `json:"kind"`
		BlobURL string          `json:"blob_url"`
		Data    json.RawMessage `json:"data,omitempty"`
	}
	out := make([]item, 0, len(frames))
	for _, kf := range frames {
		out = append(out, item{
			ID:      kf.ID,
			TMs:     kf.TMs,
			Kind:    kf.Kind,
			BlobURL: fmt.Sprintf("/runs/%s/keyframes/%d", runID, kf.ID),
			Data:    kf.Data,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Get отдает содержимое одного кифрейма
// GET /runs/{id}/keyframes/{keyframeID}
func (h *KeyframeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "keyframeID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "keyframe not found"})
		return
	}

	data, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
