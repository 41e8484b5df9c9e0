package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/hedgefund/internal/domain"
	"github.com/aristath/hedgefund/internal/events"
	"github.com/aristath/hedgefund/internal/modules/agents"
)

// MaxTickerLength is the longest accepted ticker symbol
const MaxTickerLength = 10

// Request is a multi-ticker analysis request. Empty AgentIDs selects every
// agent except the reserved roles; empty Date selects today.
type Request struct {
	Tickers          []string
	AgentIDs         []string
	Date             string
	IncludeReasoning bool
}

// Service analyzes batches of tickers
type Service struct {
	registry          *agents.Registry
	invoker           Invoker
	orchestrator      *Orchestrator
	tickerConcurrency int
	eventManager      *events.Manager
	log               zerolog.Logger
}

// NewService creates an analysis service. tickerConcurrency bounds how many
// tickers are analyzed at once; values below 1 mean one at a time.
func NewService(
	registry *agents.Registry,
	invoker Invoker,
	orchestrator *Orchestrator,
	tickerConcurrency int,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	if tickerConcurrency < 1 {
		tickerConcurrency = 1
	}
	return &Service{
		registry:          registry,
		invoker:           invoker,
		orchestrator:      orchestrator,
		tickerConcurrency: tickerConcurrency,
		eventManager:      eventManager,
		log:               log.With().Str("service", "analysis").Logger(),
	}
}

// Registry returns the agent registry backing the service
func (s *Service) Registry() *agents.Registry {
	return s.registry
}

// Validate normalizes req and rejects it before any agent is dispatched.
// Unknown agent ids fail with AGENT_NOT_FOUND, malformed input with
// INVALID_REQUEST.
func (s *Service) Validate(req Request) (Request, error) {
	if len(req.Tickers) == 0 {
		return req, domain.InvalidRequest("at least one ticker is required")
	}

	tickers := make([]string, len(req.Tickers))
	for i, t := range req.Tickers {
		ticker, err := validateTicker(t)
		if err != nil {
			return req, err
		}
		tickers[i] = ticker
	}

	agentIDs := req.AgentIDs
	if len(agentIDs) == 0 {
		agentIDs = s.registry.DefaultAgentIDs()
	} else if unknown := s.registry.Unknown(agentIDs); len(unknown) > 0 {
		return req, &domain.Error{
			Kind:    domain.KindAgentNotFound,
			AgentID: unknown[0],
			Message: "unknown agent ids: " + strings.Join(unknown, ", "),
		}
	}

	date, err := resolveDate(req.Date)
	if err != nil {
		return req, err
	}

	return Request{
		Tickers:          tickers,
		AgentIDs:         agentIDs,
		Date:             date,
		IncludeReasoning: req.IncludeReasoning,
	}, nil
}

// Analyze validates req and analyzes every ticker. Analyses follow the input
// ticker order; tickers where every agent failed are reported in Skipped.
// When no ticker produced an analysis the partial result is returned together
// with an ANALYSIS_FAILED error. A context that ends mid-batch returns its
// error and no result.
func (s *Service) Analyze(ctx context.Context, req Request) (domain.BatchResult, error) {
	req, err := s.Validate(req)
	if err != nil {
		return domain.BatchResult{}, err
	}

	start := time.Now()
	outcomes := make([]tickerOutcome, len(req.Tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.tickerConcurrency)
	for i, ticker := range req.Tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := s.orchestrator.analyzeTicker(gctx, ticker, req.AgentIDs, req.Date, req.IncludeReasoning)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn().Err(err).Int("tickers", len(req.Tickers)).Msg("Analysis batch abandoned")
		return domain.BatchResult{}, err
	}

	result := domain.BatchResult{
		Analyses: make([]domain.TickerAnalysis, 0, len(outcomes)),
		Skipped:  make([]domain.SkippedTicker, 0),
	}
	for i, out := range outcomes {
		if len(out.analysis.AgentAnalyses) == 0 {
			skipped := domain.SkippedTicker{
				Ticker: req.Tickers[i],
				Reason: domain.KindTickerYieldedNoResults,
				Failed: out.failed,
			}
			result.Skipped = append(result.Skipped, skipped)
			s.eventManager.EmitTyped("analysis", &events.TickerSkippedData{
				Ticker: skipped.Ticker,
				Kind:   string(skipped.Reason),
				Failed: skipped.Failed,
			})
			continue
		}
		result.Analyses = append(result.Analyses, out.analysis)
	}

	s.eventManager.EmitTyped("analysis", &events.BatchCompletedData{
		Tickers:  len(req.Tickers),
		Agents:   len(req.AgentIDs),
		Analyzed: len(result.Analyses),
		Skipped:  len(result.Skipped),
		Duration: time.Since(start),
	})

	if len(result.Analyses) == 0 {
		return result, &domain.Error{
			Kind:    domain.KindAnalysisFailed,
			Message: "no ticker produced a successful agent analysis",
		}
	}

	return result, nil
}

// AnalyzeSingle runs one agent against one ticker. Unknown agents fail with
// AGENT_NOT_FOUND before invocation; any other failure carries the invoker's
// error kind.
func (s *Service) AnalyzeSingle(ctx context.Context, agentID, ticker, date string, includeReasoning bool) (domain.AgentAnalysis, error) {
	descriptor, ok := s.registry.Lookup(agentID)
	if !ok {
		return domain.AgentAnalysis{}, domain.NewError(domain.KindAgentNotFound, agentID, "", nil)
	}

	ticker, err := validateTicker(ticker)
	if err != nil {
		return domain.AgentAnalysis{}, err
	}

	date, err = resolveDate(date)
	if err != nil {
		return domain.AgentAnalysis{}, err
	}

	result, err := s.invoker.Invoke(ctx, agentID, ticker, date)
	if err != nil {
		return domain.AgentAnalysis{}, err
	}

	analysis := domain.AgentAnalysis{
		AgentID:    agentID,
		AgentName:  descriptor.Name,
		Signal:     result.Signal,
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
	}
	if !includeReasoning {
		analysis.Reasoning = nil
	}
	return analysis, nil
}

func validateTicker(raw string) (string, error) {
	ticker := domain.NormalizeTicker(raw)
	if ticker == "" || len(ticker) > MaxTickerLength {
		return "", domain.InvalidRequest("ticker %q must be 1-%d characters", raw, MaxTickerLength)
	}
	return ticker, nil
}

func resolveDate(date string) (string, error) {
	if date == "" {
		return domain.Today(), nil
	}
	if !domain.ValidDate(date) {
		return "", domain.InvalidRequest("date %q must be in YYYY-MM-DD format", date)
	}
	return date, nil
}
