package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
)

type fakeRunService struct {
	runs   map[string]*domain.Run
	events []domain.Event
	diff   *domain.DiffResult

	gotLimit  int
	gotOffset int
}

func (f *fakeRunService) GetRun(_ context.Context, id string) (*domain.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func (f *fakeRunService) ListRuns(_ context.Context, limit, offset int) ([]*domain.Run, error) {
	f.gotLimit, f.gotOffset = limit, offset
	out := []*domain.Run{}
	for _, r := range f.runs {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRunService) Events(_ context.Context, runID string, limit, offset int) ([]domain.Event, error) {
	f.gotLimit, f.gotOffset = limit, offset
	if _, ok := f.runs[runID]; !ok {
		return nil, domain.ErrNotFound
	}
	return f.events, nil
}

func (f *fakeRunService) Diff(_ context.Context, runID, againstID string) (*domain.DiffResult, error) {
	if f.diff == nil {
		return nil, domain.ErrNotFound
	}
	return f.diff, nil
}

func (f *fakeRunService) LastKnownGood(_ context.Context, runID string) (*domain.LastKnownGood, error) {
	run, ok := f.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.LastKnownGood{CurrentRun: run}, nil
}

func newRunRouter(svc *fakeRunService) *chi.Mux {
	h := NewRunHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/events", h.Events)
		r.Get("/diff", h.Diff)
		r.Get("/last-green", h.LastGreen)
	})
	r.Get("/runs", h.List)
	return r
}

func TestRunHandler_Get(t *testing.T) {
	svc := &fakeRunService{runs: map[string]*domain.Run{
		"run-1": {ID: "run-1", URL: "https://app.example.com"},
	}}
	router := newRunRouter(svc)

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/run-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var run domain.Run
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
		assert.Equal(t, "run-1", run.ID)
	})

	t.Run("unknown run is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRunHandler_Events_PaginationCaps(t *testing.T) {
	svc := &fakeRunService{runs: map[string]*domain.Run{"run-1": {ID: "run-1"}}}
	router := newRunRouter(svc)

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 1000, 0},
		{"explicit values", "?limit=50&offset=10", 50, 10},
		{"limit is capped", "?limit=999999", 10000, 0},
		{"garbage falls back to defaults", "?limit=abc&offset=-5", 1000, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/run-1/events"+tc.query, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantLimit, svc.gotLimit)
			assert.Equal(t, tc.wantOffset, svc.gotOffset)
		})
	}
}

func TestRunHandler_Diff(t *testing.T) {
	svc := &fakeRunService{
		runs: map[string]*domain.Run{"run-2": {ID: "run-2"}},
		diff: &domain.DiffResult{Run1ID: "run-2", Run2ID: "run-1"},
	}
	router := newRunRouter(svc)

	t.Run("against is required", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/run-2/diff", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns diff result", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/run-2/diff?against=run-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var res domain.DiffResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "run-2", res.Run1ID)
		assert.Equal(t, "run-1", res.Run2ID)
	})
}
