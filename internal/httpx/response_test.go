package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/hedgefund/internal/domain"
)

func TestWantsMsgpack(t *testing.T) {
	tests := []struct {
		accept   string
		expected bool
	}{
		{"", false},
		{"application/json", false},
		{"application/msgpack", true},
		{"application/x-msgpack", true},
		{"text/html, application/msgpack;q=0.9", true},
		{"application/json, application/msgpack", false},
		{"*/*", false},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept", tt.accept)
			assert.Equal(t, tt.expected, WantsMsgpack(req))
		})
	}
}

func TestWriteSuccess_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteSuccess(w, req, http.StatusOK, map[string]int{"count": 3}, zerolog.Nop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentTypeJSON, w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"success","data":{"count":3}}`, w.Body.String())
}

func TestWriteSuccess_Msgpack(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", ContentTypeMsgpack)
	w := httptest.NewRecorder()

	analysis := domain.AgentAnalysis{AgentID: "valuation", AgentName: "Valuation Agent", Signal: domain.SignalBullish, Confidence: 72.5}
	WriteSuccess(w, req, http.StatusOK, analysis, zerolog.Nop())

	assert.Equal(t, ContentTypeMsgpack, w.Header().Get("Content-Type"))

	var decoded map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, "success", decoded["status"])
	data, ok := decoded["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "valuation", data["agent_id"], "json tags name msgpack keys")
	assert.Equal(t, "BULLISH", data["signal"])
	assert.Nil(t, data["reasoning"])
}

func TestWriteError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusBadRequest, "INVALID_REQUEST", "bad", nil, zerolog.Nop())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","code":"INVALID_REQUEST","message":"bad","details":[]}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"agent not found", domain.NewError(domain.KindAgentNotFound, "x", "", nil), http.StatusNotFound, "AGENT_NOT_FOUND"},
		{"invalid request", domain.InvalidRequest("nope"), http.StatusBadRequest, "INVALID_REQUEST"},
		{"analysis failed", &domain.Error{Kind: domain.KindAnalysisFailed}, http.StatusInternalServerError, "ANALYSIS_FAILED"},
		{"execution failed", domain.NewError(domain.KindAgentExecutionFailed, "a", "T", errors.New("x")), http.StatusInternalServerError, "ANALYSIS_FAILED"},
		{"deadline", fmt.Errorf("batch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, CodeTimeout},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, CodeTimeout},
		{"unknown", errors.New("what"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestWriteDomainError_HidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	WriteDomainError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("db password leaked"), zerolog.Nop())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, CodeInternalError, resp.Code)
}

func TestWriteDomainError_UsesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteDomainError(w, httptest.NewRequest(http.MethodGet, "/", nil), domain.InvalidRequest("at least one ticker is required"), zerolog.Nop())

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "at least one ticker is required", resp.Message)
}

type decodeTarget struct {
	Ticker string   `json:"ticker"`
	Agents []string `json:"agents"`
}

func TestDecode(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ticker":"AAPL","agents":["valuation"]}`))
		req.Header.Set("Content-Type", "application/json")

		var v decodeTarget
		require.NoError(t, Decode(req, &v))
		assert.Equal(t, decodeTarget{Ticker: "AAPL", Agents: []string{"valuation"}}, v)
	})

	t.Run("msgpack", func(t *testing.T) {
		body, err := msgpack.Marshal(map[string]interface{}{"ticker": "MSFT"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("Content-Type", ContentTypeMsgpack)

		var v decodeTarget
		require.NoError(t, Decode(req, &v))
		assert.Equal(t, "MSFT", v.Ticker)
	})

	errorCases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"malformed", `{"ticker":`},
		{"wrong type", `{"ticker":5}`},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v decodeTarget
			err := Decode(req, &v)
			require.Error(t, err)
			assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
		})
	}
}
