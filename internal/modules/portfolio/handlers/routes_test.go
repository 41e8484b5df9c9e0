package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoutes(t *testing.T) {
	handler := NewHandler(zerolog.Nop())

	// Create router and register routes - this should not panic
	router := chi.NewRouter()
	require.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	}, "RegisterRoutes should not panic")

	testCases := []struct {
		method string
		path   string
		name   string
	}{
		{"GET", "/portfolio", "Get portfolio"},
		{"GET", "/portfolio/analytics", "Get analytics"},
		{"GET", "/portfolio/orders", "Get orders"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code, "Route %s %s should be registered", tc.method, tc.path)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "success", resp["status"])
		})
	}
}

func TestHandleGetPortfolio(t *testing.T) {
	handler := NewHandler(zerolog.Nop())

	rec := httptest.NewRecorder()
	handler.HandleGetPortfolio(rec, httptest.NewRequest("GET", "/api/v1/portfolio", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"status": "success",
		"data": {
			"positions": [],
			"cash": 100000,
			"total_value": 100000,
			"daily_pnl": 0,
			"daily_pnl_percent": 0,
			"total_pnl": 0,
			"total_pnl_percent": 0,
			"last_updated": "2023-11-14T12:00:00Z"
		}
	}`, rec.Body.String())
}

func TestHandleGetOrders(t *testing.T) {
	handler := NewHandler(zerolog.Nop())

	rec := httptest.NewRecorder()
	handler.HandleGetOrders(rec, httptest.NewRequest("GET", "/api/v1/portfolio/orders", nil))

	assert.JSONEq(t, `{"status":"success","data":{"orders":[]}}`, rec.Body.String())
}
