// Package handlers provides HTTP handlers for multi-ticker analysis.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/hedgefund/internal/domain"
	"github.com/aristath/hedgefund/internal/httpx"
	"github.com/aristath/hedgefund/internal/modules/analysis"
	"github.com/aristath/hedgefund/internal/utils"
)

// Analyzer runs multi-ticker analyses
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (domain.BatchResult, error)
}

// Handler handles analysis HTTP requests
type Handler struct {
	analyzer Analyzer
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewHandler creates a new analysis handler. A nil limiter disables rate
// limiting.
func NewHandler(analyzer Analyzer, limiter *rate.Limiter, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		limiter:  limiter,
		log:      log.With().Str("handler", "analysis").Logger(),
	}
}

// AnalysisRequest is the body of POST /api/v1/analysis
type AnalysisRequest struct {
	Tickers          []string `json:"tickers"`
	Agents           []string `json:"agents"`
	Date             string   `json:"date"`
	IncludeReasoning bool     `json:"include_reasoning"`
}

// HandleAnalyze handles POST /api/v1/analysis
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, r, err, h.log)
		return
	}

	if len(req.Tickers) == 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, string(domain.KindInvalidRequest),
			"At least one ticker must be specified", []httpx.ErrorDetail{{Field: "tickers", Error: "must not be empty"}}, h.log)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), analysis.Request{
		Tickers:          req.Tickers,
		AgentIDs:         req.Agents,
		Date:             req.Date,
		IncludeReasoning: req.IncludeReasoning,
	})
	if err != nil {
		h.writeAnalysisError(w, r, err, result, "Failed to run analysis on any of the specified tickers")
		return
	}

	httpx.Write(w, r, http.StatusOK, result, h.log)
}

// HandleGetStockAnalysis handles GET /api/v1/analysis/stocks/{ticker}
func (h *Handler) HandleGetStockAnalysis(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	query := r.URL.Query()

	includeReasoning := false
	if v := query.Get("include_reasoning"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, string(domain.KindInvalidRequest),
				"include_reasoning must be a boolean", []httpx.ErrorDetail{{Field: "include_reasoning", Error: err.Error()}}, h.log)
			return
		}
		includeReasoning = parsed
	}

	result, err := h.analyzer.Analyze(r.Context(), analysis.Request{
		Tickers:          []string{ticker},
		AgentIDs:         utils.ParseCSV(query["agents"]...),
		Date:             query.Get("date"),
		IncludeReasoning: includeReasoning,
	})
	if err != nil {
		h.writeAnalysisError(w, r, err, result, fmt.Sprintf("Failed to run analysis for ticker '%s'", ticker))
		return
	}

	httpx.WriteSuccess(w, r, http.StatusOK, result.Analyses[0], h.log)
}

// writeAnalysisError maps service errors. Unknown agents are a client error
// here, and a batch with no successful ticker lists the skipped tickers.
func (h *Handler) writeAnalysisError(w http.ResponseWriter, r *http.Request, err error, result domain.BatchResult, failedMessage string) {
	switch domain.KindOf(err) {
	case domain.KindAgentNotFound:
		message := err.Error()
		var derr *domain.Error
		if errors.As(err, &derr) && derr.Message != "" {
			message = derr.Message
		}
		httpx.WriteError(w, r, http.StatusBadRequest, string(domain.KindAgentNotFound), message,
			[]httpx.ErrorDetail{{Field: "agents", Error: message}}, h.log)
	case domain.KindAnalysisFailed:
		details := make([]httpx.ErrorDetail, 0, len(result.Skipped))
		for _, s := range result.Skipped {
			details = append(details, httpx.ErrorDetail{
				Field: s.Ticker,
				Error: fmt.Sprintf("%s (%d agents failed)", s.Reason, s.Failed),
			})
		}
		h.log.Warn().Int("skipped", len(result.Skipped)).Msg("Analysis produced no results")
		httpx.WriteError(w, r, http.StatusInternalServerError, string(domain.KindAnalysisFailed), failedMessage, details, h.log)
	default:
		httpx.WriteDomainError(w, r, err, h.log)
	}
}

// RateLimit rejects requests with 429 once the limiter is exhausted
func (h *Handler) RateLimit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			httpx.WriteError(w, r, http.StatusTooManyRequests, httpx.CodeRateLimited,
				"Too many analysis requests, retry shortly", nil, h.log)
			return
		}
		next.ServeHTTP(w, r)
	})
}
