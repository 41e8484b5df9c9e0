// Package handlers provides HTTP handlers for agent metadata and single-agent analysis.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/hedgefund/internal/domain"
	"github.com/aristath/hedgefund/internal/httpx"
	"github.com/aristath/hedgefund/internal/modules/agents"
)

// Analyzer runs a single agent against a ticker
type Analyzer interface {
	AnalyzeSingle(ctx context.Context, agentID, ticker, date string, includeReasoning bool) (domain.AgentAnalysis, error)
}

// Handler handles agent HTTP requests
type Handler struct {
	registry *agents.Registry
	analyzer Analyzer
	log      zerolog.Logger
}

// NewHandler creates a new agents handler
func NewHandler(registry *agents.Registry, analyzer Analyzer, log zerolog.Logger) *Handler {
	return &Handler{
		registry: registry,
		analyzer: analyzer,
		log:      log.With().Str("handler", "agents").Logger(),
	}
}

// AgentList is the response of GET /api/v1/agents
type AgentList struct {
	Agents []agents.Descriptor `json:"agents"`
}

// AnalyzeRequest is the body of POST /api/v1/agents/{agentID}/analyze
type AnalyzeRequest struct {
	Ticker           string `json:"ticker"`
	Date             string `json:"date"`
	IncludeReasoning bool   `json:"include_reasoning"`
}

// HandleList handles GET /api/v1/agents
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	agentType := r.URL.Query().Get("type")
	category := r.URL.Query().Get("category")

	httpx.Write(w, r, http.StatusOK, AgentList{Agents: h.registry.Filter(agentType, category)}, h.log)
}

// HandleGet handles GET /api/v1/agents/{agentID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	descriptor, ok := h.registry.Lookup(agentID)
	if !ok {
		h.writeNotFound(w, r, agentID)
		return
	}

	httpx.Write(w, r, http.StatusOK, descriptor, h.log)
}

// HandleAnalyze handles POST /api/v1/agents/{agentID}/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	if _, ok := h.registry.Lookup(agentID); !ok {
		h.writeNotFound(w, r, agentID)
		return
	}

	var req AnalyzeRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, r, err, h.log)
		return
	}

	analysis, err := h.analyzer.AnalyzeSingle(r.Context(), agentID, req.Ticker, req.Date, req.IncludeReasoning)
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindAgentNotFound:
			h.writeNotFound(w, r, agentID)
		case domain.KindAgentConstructionFailed, domain.KindAgentExecutionFailed:
			if r.Context().Err() != nil {
				httpx.WriteDomainError(w, r, r.Context().Err(), h.log)
				return
			}
			h.log.Warn().Err(err).Str("agent_id", agentID).Msg("Agent analysis failed")
			httpx.WriteError(w, r, http.StatusInternalServerError, string(domain.KindAnalysisFailed),
				fmt.Sprintf("Failed to run analysis with agent '%s'", agentID), nil, h.log)
		default:
			httpx.WriteDomainError(w, r, err, h.log)
		}
		return
	}

	httpx.WriteSuccess(w, r, http.StatusOK, analysis, h.log)
}

func (h *Handler) writeNotFound(w http.ResponseWriter, r *http.Request, agentID string) {
	httpx.WriteError(w, r, http.StatusNotFound, string(domain.KindAgentNotFound),
		fmt.Sprintf("Agent with ID '%s' not found", agentID), nil, h.log)
}
