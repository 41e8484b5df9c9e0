package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/hedgefund/internal/domain"
	"github.com/aristath/hedgefund/internal/httpx"
	"github.com/aristath/hedgefund/internal/modules/agents"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) AnalyzeSingle(ctx context.Context, agentID, ticker, date string, includeReasoning bool) (domain.AgentAnalysis, error) {
	args := m.Called(agentID, ticker, date, includeReasoning)
	return args.Get(0).(domain.AgentAnalysis), args.Error(1)
}

func setupRouter(analyzer Analyzer) *chi.Mux {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(agents.NewRegistry(nil, logger), analyzer, logger)

	router := chi.NewRouter()
	router.Route("/api/v1", handler.RegisterRoutes)
	return router
}

func TestHandleList(t *testing.T) {
	router := setupRouter(&mockAnalyzer{})

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"all", "", 15},
		{"by type", "?type=growth", 3},
		{"by category", "?category=risk_management", 1},
		{"by both", "?type=value&category=value_investing", 3},
		{"no match", "?type=unknown", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/agents"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)

			var resp AgentList
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Len(t, resp.Agents, tt.count)
			assert.NotNil(t, resp.Agents)
		})
	}
}

func TestHandleGet(t *testing.T) {
	router := setupRouter(&mockAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents/cathie_wood", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var d agents.Descriptor
	require.NoError(t, json.NewDecoder(w.Body).Decode(&d))
	assert.Equal(t, "cathie_wood", d.ID)
	assert.Equal(t, "Cathie Wood", d.Name)
	assert.Equal(t, "growth_investing", d.Category)
	assert.True(t, d.Active)
}

func TestHandleGet_NotFound(t *testing.T) {
	router := setupRouter(&mockAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents/not_a_real_agent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "AGENT_NOT_FOUND", resp.Code)
	assert.Contains(t, resp.Message, "not_a_real_agent")
}

func TestHandleAnalyze(t *testing.T) {
	analyzer := &mockAnalyzer{}
	analyzer.On("AnalyzeSingle", "warren_buffett", "AAPL", "2024-01-02", true).Return(domain.AgentAnalysis{
		AgentID:    "warren_buffett",
		AgentName:  "Warren Buffett",
		Signal:     domain.SignalBullish,
		Confidence: 82,
		Reasoning:  domain.StringPtr("wide moat"),
	}, nil)
	router := setupRouter(analyzer)

	body := `{"ticker":"AAPL","date":"2024-01-02","include_reasoning":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents/warren_buffett/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"status": "success",
		"data": {
			"agent_id": "warren_buffett",
			"agent_name": "Warren Buffett",
			"signal": "BULLISH",
			"confidence": 82,
			"reasoning": "wide moat"
		}
	}`, w.Body.String())
	analyzer.AssertExpectations(t)
}

func TestHandleAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		agentID    string
		body       string
		analyzeErr error
		status     int
		code       string
	}{
		{
			name:    "unknown agent",
			agentID: "nobody",
			body:    `{"ticker":"AAPL"}`,
			status:  http.StatusNotFound,
			code:    "AGENT_NOT_FOUND",
		},
		{
			name:    "malformed body",
			agentID: "valuation",
			body:    `{"ticker":`,
			status:  http.StatusBadRequest,
			code:    "INVALID_REQUEST",
		},
		{
			name:       "invalid ticker",
			agentID:    "valuation",
			body:       `{"ticker":""}`,
			analyzeErr: domain.InvalidRequest("ticker must be 1-10 characters"),
			status:     http.StatusBadRequest,
			code:       "INVALID_REQUEST",
		},
		{
			name:       "agent failed",
			agentID:    "valuation",
			body:       `{"ticker":"AAPL"}`,
			analyzeErr: domain.NewError(domain.KindAgentExecutionFailed, "valuation", "AAPL", errors.New("boom")),
			status:     http.StatusInternalServerError,
			code:       "ANALYSIS_FAILED",
		},
		{
			name:       "agent not constructible",
			agentID:    "valuation",
			body:       `{"ticker":"AAPL"}`,
			analyzeErr: domain.NewError(domain.KindAgentConstructionFailed, "valuation", "AAPL", agents.ErrServiceNotConfigured),
			status:     http.StatusInternalServerError,
			code:       "ANALYSIS_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &mockAnalyzer{}
			analyzer.On("AnalyzeSingle", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(domain.AgentAnalysis{}, tt.analyzeErr)
			router := setupRouter(analyzer)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/agents/"+tt.agentID+"/analyze", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			var resp httpx.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotContains(t, resp.Message, "boom")
		})
	}
}
