package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
)

type fakeIngestor struct {
	gotReq *domain.IngestRequest
	runID  string
	err    error
}

func (f *fakeIngestor) Ingest(_ context.Context, req *domain.IngestRequest) (string, error) {
	f.gotReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.runID, nil
}

func TestIngestHandler(t *testing.T) {
	t.Run("accepts batch and returns run id", func(t *testing.T) {
		svc := &fakeIngestor{runID: "11111111-2222-3333-4444-555555555555"}
		h := NewIngestHandler(svc, zap.NewNop())

		body := `{"context":{"url":"https://app.example.com"},"events":[{"t":1,"kind":"click"}]}`
		rec := httptest.NewRecorder()
		h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			OK    bool   `json:"ok"`
			RunID string `json:"runId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.Equal(t, svc.runID, resp.RunID)

		require.NotNil(t, svc.gotReq)
		assert.Equal(t, "https://app.example.com", svc.gotReq.Context.URL)
		assert.Len(t, svc.gotReq.Events, 1)
	})

	t.Run("malformed json is 400", func(t *testing.T) {
		h := NewIngestHandler(&fakeIngestor{}, zap.NewNop())
		rec := httptest.NewRecorder()
		h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"events":`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failure from service is 400", func(t *testing.T) {
		svc := &fakeIngestor{err: domain.ErrValidation}
		h := NewIngestHandler(svc, zap.NewNop())
		rec := httptest.NewRecorder()
		h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"events":[{"kind":"bogus"}]}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
