// Package handlers provides HTTP handlers for the backtest endpoints.
// Simulation is not implemented; runs return a flat result for the
// requested window and capital.
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/hedgefund/internal/domain"
	"github.com/aristath/hedgefund/internal/httpx"
)

// DefaultInitialCapital is used when a request omits initial_capital
const DefaultInitialCapital = 100000.0

// AgentValidator reports agent ids it does not know
type AgentValidator interface {
	Unknown(ids []string) []string
}

// Handler handles backtest HTTP requests
type Handler struct {
	agents AgentValidator
	log    zerolog.Logger
}

// NewHandler creates a new backtest handler
func NewHandler(agents AgentValidator, log zerolog.Logger) *Handler {
	return &Handler{
		agents: agents,
		log:    log.With().Str("handler", "backtest").Logger(),
	}
}

// Request is the body of POST /api/v1/backtest
type Request struct {
	Tickers        []string `json:"tickers"`
	Agents         []string `json:"agents"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	InitialCapital *float64 `json:"initial_capital"`
	IncludeTrades  *bool    `json:"include_trades"`
}

// Trade is a simulated trade
type Trade struct {
	Date       string   `json:"date"`
	Ticker     string   `json:"ticker"`
	Action     string   `json:"action"`
	Quantity   float64  `json:"quantity"`
	Price      float64  `json:"price"`
	Value      float64  `json:"value"`
	Commission float64  `json:"commission"`
	AgentID    *string  `json:"agent_id"`
	Confidence *float64 `json:"confidence"`
	Reasoning  *string  `json:"reasoning"`
}

// DailyPerformance is one day of a simulation
type DailyPerformance struct {
	Date                          string  `json:"date"`
	PortfolioValue                float64 `json:"portfolio_value"`
	Cash                          float64 `json:"cash"`
	PositionsValue                float64 `json:"positions_value"`
	DailyPnL                      float64 `json:"daily_pnl"`
	DailyPnLPercent               float64 `json:"daily_pnl_percent"`
	CumulativePnL                 float64 `json:"cumulative_pnl"`
	CumulativePnLPercent          float64 `json:"cumulative_pnl_percent"`
	BenchmarkValue                float64 `json:"benchmark_value"`
	BenchmarkDailyPnLPercent      float64 `json:"benchmark_daily_pnl_percent"`
	BenchmarkCumulativePnLPercent float64 `json:"benchmark_cumulative_pnl_percent"`
}

// Result is a backtest outcome
type Result struct {
	BacktestID             string                            `json:"backtest_id"`
	StartDate              string                            `json:"start_date"`
	EndDate                string                            `json:"end_date"`
	InitialCapital         float64                           `json:"initial_capital"`
	FinalPortfolioValue    float64                           `json:"final_portfolio_value"`
	TotalReturn            float64                           `json:"total_return"`
	TotalReturnPercent     float64                           `json:"total_return_percent"`
	AnnualizedReturn       float64                           `json:"annualized_return"`
	SharpeRatio            float64                           `json:"sharpe_ratio"`
	SortinoRatio           float64                           `json:"sortino_ratio"`
	MaxDrawdown            float64                           `json:"max_drawdown"`
	MaxDrawdownPercent     float64                           `json:"max_drawdown_percent"`
	Volatility             float64                           `json:"volatility"`
	BenchmarkReturnPercent float64                           `json:"benchmark_return_percent"`
	BenchmarkSharpeRatio   float64                           `json:"benchmark_sharpe_ratio"`
	Trades                 []Trade                           `json:"trades"`
	DailyPerformance       []DailyPerformance                `json:"daily_performance"`
	AgentPerformance       map[string]map[string]interface{} `json:"agent_performance"`
}

func flatResult(id, start, end string, capital float64) Result {
	return Result{
		BacktestID:          id,
		StartDate:           start,
		EndDate:             end,
		InitialCapital:      capital,
		FinalPortfolioValue: capital,
		Trades:              []Trade{},
		DailyPerformance:    []DailyPerformance{},
		AgentPerformance:    map[string]map[string]interface{}{},
	}
}

// HandleRun handles POST /api/v1/backtest
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, r, err, h.log)
		return
	}

	if details := h.validate(req); len(details) > 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, string(domain.KindInvalidRequest),
			"Invalid backtest request", details, h.log)
		return
	}

	capital := DefaultInitialCapital
	if req.InitialCapital != nil {
		capital = *req.InitialCapital
	}

	result := flatResult(uuid.New().String(), req.StartDate, req.EndDate, capital)

	h.log.Info().
		Str("backtest_id", result.BacktestID).
		Int("tickers", len(req.Tickers)).
		Str("start_date", req.StartDate).
		Str("end_date", req.EndDate).
		Bool("include_trades", req.IncludeTrades == nil || *req.IncludeTrades).
		Msg("Backtest requested")

	httpx.WriteSuccess(w, r, http.StatusOK, result, h.log)
}

// HandleGetResults handles GET /api/v1/backtest/results/{backtestID}
func (h *Handler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	backtestID := chi.URLParam(r, "backtestID")
	httpx.WriteSuccess(w, r, http.StatusOK, flatResult(backtestID, "2023-01-01", "2023-11-01", DefaultInitialCapital), h.log)
}

func (h *Handler) validate(req Request) []httpx.ErrorDetail {
	var details []httpx.ErrorDetail

	if len(req.Tickers) == 0 {
		details = append(details, httpx.ErrorDetail{Field: "tickers", Error: "at least one ticker is required"})
	}
	for _, t := range req.Tickers {
		if n := len(strings.TrimSpace(t)); n == 0 || n > 10 {
			details = append(details, httpx.ErrorDetail{Field: "tickers", Error: fmt.Sprintf("ticker %q must be 1-10 characters", t)})
		}
	}

	if h.agents != nil {
		if unknown := h.agents.Unknown(req.Agents); len(unknown) > 0 {
			details = append(details, httpx.ErrorDetail{Field: "agents", Error: "unknown agent ids: " + strings.Join(unknown, ", ")})
		}
	}

	start, startErr := time.Parse(domain.DateLayout, req.StartDate)
	if startErr != nil {
		details = append(details, httpx.ErrorDetail{Field: "start_date", Error: "must be in YYYY-MM-DD format"})
	}
	end, endErr := time.Parse(domain.DateLayout, req.EndDate)
	if endErr != nil {
		details = append(details, httpx.ErrorDetail{Field: "end_date", Error: "must be in YYYY-MM-DD format"})
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		details = append(details, httpx.ErrorDetail{Field: "end_date", Error: "must not be before start_date"})
	}

	if req.InitialCapital != nil && *req.InitialCapital <= 0 {
		details = append(details, httpx.ErrorDetail{Field: "initial_capital", Error: "must be positive"})
	}

	return details
}
