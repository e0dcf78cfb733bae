package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/folio/internal/config"
	"github.com/davidbz/folio/internal/domain"
	folhttp "github.com/davidbz/folio/internal/http"
	"github.com/davidbz/folio/internal/http/middleware"
)

type mockSummaryStore struct {
	mock.Mock
}

func (m *mockSummaryStore) Save(ctx context.Context, summary domain.CostSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *mockSummaryStore) Load(ctx context.Context) (domain.CostSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.CostSummary), args.Error(1)
}

func newTestServer(t *testing.T, store domain.SummaryStore) http.Handler {
	t.Helper()

	models, err := domain.NewModelRegistry(
		domain.ModelDescriptor{ID: "gpt-4.1-nano", InputPerMTok: 0.1, CachedInputPerMTok: 0.025, OutputPerMTok: 0.4},
		domain.ModelDescriptor{ID: "echo-1", Backend: "echo"},
	)
	require.NoError(t, err)

	handler := folhttp.NewHandler(models, store)
	server := folhttp.NewServer(&config.ServerConfig{Port: 0}, handler, middleware.Chain(middleware.Trace()))
	return server.Routes()
}

func TestHandleModels(t *testing.T) {
	routes := newTestServer(t, new(mockSummaryStore))

	t.Run("lists models in order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.NotEmpty(t, rec.Header().Get("X-Trace-Id"))

		var body folhttp.ModelsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Models, 2)
		require.Equal(t, "gpt-4.1-nano", body.Models[0].ID)
		require.Equal(t, domain.DefaultBackend, body.Models[0].Backend)
		require.Equal(t, "echo", body.Models[1].Backend)
	})

	t.Run("rejects other methods", func(t *testing.T) {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/models", nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandleSummary(t *testing.T) {
	summary := domain.CostSummary{
		RunID:        "run-1",
		TotalCost:    0.25,
		CostByModel:  map[string]float64{"gpt-4.1-nano": 0.25},
		CostByFile:   map[string]float64{"a.pdf": 0.25},
		RecordCount:  1,
		FailureCount: 0,
	}

	tests := []struct {
		name       string
		loadResult domain.CostSummary
		loadErr    error
		wantStatus int
	}{
		{
			name:       "returns stored summary",
			loadResult: summary,
			wantStatus: http.StatusOK,
		},
		{
			name:       "no summary yet",
			loadErr:    fs.ErrNotExist,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "store failure",
			loadErr:    errors.New("decode summary: unexpected EOF"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockSummaryStore)
			store.On("Load", mock.Anything).Return(tt.loadResult, tt.loadErr).Once()

			rec := httptest.NewRecorder()
			newTestServer(t, store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/summary", nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			store.AssertExpectations(t)

			if tt.wantStatus != http.StatusOK {
				return
			}

			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Equal(t, "run-1", got["run_id"])
			require.EqualValues(t, 1, got["record_count"])
		})
	}
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, new(mockSummaryStore)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())
}
