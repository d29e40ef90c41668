package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepilot/backend/config"
	"github.com/pricepilot/backend/internal/domain"
	"github.com/pricepilot/backend/internal/infrastructure/store"
	"github.com/pricepilot/backend/internal/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()

	memory := store.NewMemoryStore()
	analysis := usecase.NewAnalysisService(memory, nil, usecase.AnalysisConfig{})
	handler := NewHandler(analysis, memory)

	cfg := &config.Config{}
	cfg.Server.Environment = "test"
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	return SetupRouter(cfg, handler), memory
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func runPayload(sessionID string) []byte {
	payload := map[string]any{
		"sessionId": sessionID,
		"merchant": []domain.Row{
			{{Column: "name", Value: "Chanel No5 EDP 100ml"}, {Column: "price", Value: "450"}},
			{{Column: "الاسم", Value: "ديور سوفاج"}, {Column: "السعر", Value: "٥٢٠"}},
		},
		"competitors": []usecase.CompetitorCatalog{
			{
				SourceID: "comp-a",
				Rows: []domain.Row{
					{{Column: "name", Value: "Chanel No 5 EDP 100 ml"}, {Column: "price", Value: "480"}},
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	return body
}

func TestRunAnalysis(t *testing.T) {
	router, memory := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analysis/run", bytes.NewReader(runPayload("web-1")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var state domain.RunState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "web-1", state.SessionID)
	assert.Equal(t, 2, state.ProcessedCount)
	require.Len(t, state.Decisions, 2)

	chanel := state.Decisions[0]
	assert.Equal(t, domain.CategoryRaise, chanel.Category)
	require.NotNil(t, chanel.Competitor)
	assert.Equal(t, "comp-a", chanel.Competitor.SourceID)
	require.NotNil(t, chanel.RecommendedPrice)
	assert.Equal(t, 479.0, *chanel.RecommendedPrice)

	arabic := state.Decisions[1]
	assert.Equal(t, domain.CategoryMissing, arabic.Category)
	assert.Equal(t, 520.0, arabic.Merchant.Price)

	count, err := memory.ProcessedCount(req.Context(), "web-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunAnalysisGeneratesSessionID(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analysis/run", bytes.NewReader(runPayload("")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var state domain.RunState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Len(t, state.SessionID, 8)
}

func TestRunAnalysisBadRequest(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"missing merchant", `{"sessionId": "x"}`},
		{"empty merchant", `{"merchant": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/api/v1/analysis/run", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetDecisions(t *testing.T) {
	router, _ := newTestRouter(t)

	// Seed through the run endpoint, then read back.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analysis/run", bytes.NewReader(runPayload("web-2")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/analysis/web-2/decisions", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SessionID string                 `json:"sessionId"`
		Decisions []domain.MatchDecision `json:"decisions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "web-2", body.SessionID)
	assert.Len(t, body.Decisions, 2)
}

func TestGetSummary(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/analysis/run", bytes.NewReader(runPayload("web-3")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/analysis/web-3/summary", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Summary domain.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Summary.Total)
	assert.Equal(t, 1, body.Summary.ByCategory[domain.CategoryRaise])
	assert.Equal(t, 1, body.Summary.ByCategory[domain.CategoryMissing])
}

func TestGetDecisionsUnknownSession(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/analysis/ghost/decisions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSHeaders(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/v1/analysis/run", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
