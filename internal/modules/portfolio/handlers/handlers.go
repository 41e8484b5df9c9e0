// Package handlers provides HTTP handlers for the portfolio endpoints.
// No positions are tracked yet: every endpoint reports a flat all-cash book.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/hedgefund/internal/httpx"
)

// Defaults of the flat book
const (
	InitialCash = 100000.0
	LastUpdated = "2023-11-14T12:00:00Z"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "portfolio").Logger(),
	}
}

// Position is a holding in the portfolio
type Position struct {
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	AveragePrice  float64 `json:"average_price"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Summary is the response of GET /api/v1/portfolio
type Summary struct {
	Positions       []Position `json:"positions"`
	Cash            float64    `json:"cash"`
	TotalValue      float64    `json:"total_value"`
	DailyPnL        float64    `json:"daily_pnl"`
	DailyPnLPercent float64    `json:"daily_pnl_percent"`
	TotalPnL        float64    `json:"total_pnl"`
	TotalPnLPercent float64    `json:"total_pnl_percent"`
	LastUpdated     string     `json:"last_updated"`
}

// Analytics is the response of GET /api/v1/portfolio/analytics
type Analytics struct {
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	Volatility   float64 `json:"volatility"`
	Beta         float64 `json:"beta"`
	Alpha        float64 `json:"alpha"`
	RSquared     float64 `json:"r_squared"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	AverageWin   float64 `json:"average_win"`
	AverageLoss  float64 `json:"average_loss"`
}

// Order is an executed or pending order
type Order struct {
	ID        string  `json:"id"`
	Ticker    string  `json:"ticker"`
	Action    string  `json:"action"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// OrderHistory is the response of GET /api/v1/portfolio/orders
type OrderHistory struct {
	Orders []Order `json:"orders"`
}

// HandleGetPortfolio handles GET /api/v1/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	httpx.WriteSuccess(w, r, http.StatusOK, Summary{
		Positions:   []Position{},
		Cash:        InitialCash,
		TotalValue:  InitialCash,
		LastUpdated: LastUpdated,
	}, h.log)
}

// HandleGetAnalytics handles GET /api/v1/portfolio/analytics
func (h *Handler) HandleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	httpx.WriteSuccess(w, r, http.StatusOK, Analytics{}, h.log)
}

// HandleGetOrders handles GET /api/v1/portfolio/orders
func (h *Handler) HandleGetOrders(w http.ResponseWriter, r *http.Request) {
	httpx.WriteSuccess(w, r, http.StatusOK, OrderHistory{Orders: []Order{}}, h.log)
}
