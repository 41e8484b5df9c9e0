// Package analysis fans agent invocations out per ticker and assembles batch
// results across tickers.
package analysis

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/hedgefund/internal/domain"
	"github.com/aristath/hedgefund/internal/events"
	"github.com/aristath/hedgefund/internal/modules/agents"
	"github.com/aristath/hedgefund/internal/workers"
)

// Invoker runs a single agent for a ticker
type Invoker interface {
	Invoke(ctx context.Context, agentID, ticker, date string) (domain.AgentResult, error)
}

// Orchestrator analyzes one ticker with a set of agents
type Orchestrator struct {
	invoker      Invoker
	registry     *agents.Registry
	pool         *workers.WorkerPool
	decider      PortfolioDecider
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewOrchestrator creates an orchestrator. A nil decider disables the
// portfolio decision step.
func NewOrchestrator(
	invoker Invoker,
	registry *agents.Registry,
	pool *workers.WorkerPool,
	decider PortfolioDecider,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Orchestrator {
	if pool == nil {
		pool = workers.NewWorkerPool(workers.DefaultWorkers)
	}
	return &Orchestrator{
		invoker:      invoker,
		registry:     registry,
		pool:         pool,
		decider:      decider,
		eventManager: eventManager,
		log:          log.With().Str("component", "orchestrator").Logger(),
	}
}

type agentOutcome struct {
	agentID string
	result  domain.AgentResult
	err     error
}

// tickerOutcome is a ticker analysis plus the number of agents that failed
type tickerOutcome struct {
	analysis domain.TickerAnalysis
	failed   int
}

// AnalyzeTicker runs every non-reserved agent in agentIDs against ticker with
// at most min(pool size, agents) concurrent invocations. Failed agents are
// left out. Analyses are in completion order. The only error returned is the
// context's, when it ends before every agent was dispatched or finished.
func (o *Orchestrator) AnalyzeTicker(ctx context.Context, ticker string, agentIDs []string, date string, includeReasoning bool) (domain.TickerAnalysis, error) {
	out, err := o.analyzeTicker(ctx, ticker, agentIDs, date, includeReasoning)
	return out.analysis, err
}

func (o *Orchestrator) analyzeTicker(ctx context.Context, ticker string, agentIDs []string, date string, includeReasoning bool) (tickerOutcome, error) {
	start := time.Now()
	dispatch, wantDecision := o.partition(agentIDs)

	completed, err := workers.Process(ctx, o.pool, dispatch, func(ctx context.Context, agentID string) agentOutcome {
		result, err := o.invoker.Invoke(ctx, agentID, ticker, date)
		return agentOutcome{agentID: agentID, result: result, err: err}
	})
	if err != nil {
		return tickerOutcome{}, err
	}
	// Agents that were in flight when the context ended report failures; the
	// batch is abandoned rather than returned partially.
	if err := ctx.Err(); err != nil {
		return tickerOutcome{}, err
	}

	collected := make([]domain.AgentAnalysis, 0, len(completed))
	failed := 0
	for _, c := range completed {
		if c.Result.err != nil {
			failed++
			continue
		}
		collected = append(collected, domain.AgentAnalysis{
			AgentID:    c.Result.agentID,
			AgentName:  o.agentName(c.Result.agentID),
			Signal:     c.Result.result.Signal,
			Confidence: c.Result.result.Confidence,
			Reasoning:  c.Result.result.Reasoning,
		})
	}

	analysis := domain.TickerAnalysis{
		Ticker:        ticker,
		Date:          date,
		AgentAnalyses: collected,
	}

	if wantDecision && len(collected) > 0 {
		analysis.PortfolioDecision = o.decide(ctx, ticker, date, collected)
	}

	if !includeReasoning {
		stripReasoning(&analysis)
	}

	o.eventManager.EmitTyped("analysis", &events.TickerAnalyzedData{
		Ticker:    ticker,
		Requested: len(dispatch),
		Succeeded: len(collected),
		Failed:    failed,
		Duration:  time.Since(start),
	})

	return tickerOutcome{analysis: analysis, failed: failed}, nil
}

// partition drops reserved roles and duplicate ids from the fan-out and
// reports whether a portfolio decision was requested
func (o *Orchestrator) partition(agentIDs []string) ([]string, bool) {
	dispatch := make([]string, 0, len(agentIDs))
	seen := make(map[string]bool, len(agentIDs))
	wantDecision := false

	for _, id := range agentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		switch id {
		case agents.PortfolioManagerID:
			wantDecision = true
		case agents.RiskManagerID:
			o.log.Debug().Msg("Risk manager requested; it has no per-ticker aggregation step")
		default:
			dispatch = append(dispatch, id)
		}
	}

	return dispatch, wantDecision
}

// decide runs the portfolio decider. Any failure, including a panic, is
// reported as an event and yields a nil decision.
func (o *Orchestrator) decide(ctx context.Context, ticker, date string, collected []domain.AgentAnalysis) (decision *domain.PortfolioDecision) {
	if o.decider == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			o.log.Debug().Bytes("stack", debug.Stack()).Str("ticker", ticker).Msg("Recovered portfolio decider panic")
			o.decisionFailed(ticker, fmt.Errorf("panic: %v", r))
			decision = nil
		}
	}()

	input := make([]domain.AgentAnalysis, len(collected))
	copy(input, collected)

	decision, err := o.decider.Decide(ctx, ticker, date, input)
	if err != nil {
		o.decisionFailed(ticker, err)
		return nil
	}
	if decision == nil {
		return nil
	}

	o.eventManager.EmitTyped("analysis", &events.PortfolioDecisionData{
		Ticker:     ticker,
		Action:     string(decision.Action),
		Quantity:   decision.Quantity,
		Confidence: decision.Confidence,
	})
	return decision
}

func (o *Orchestrator) decisionFailed(ticker string, cause error) {
	err := domain.NewError(domain.KindPortfolioDecisionFailed, agents.PortfolioManagerID, ticker, cause)
	o.eventManager.EmitTyped("analysis", &events.PortfolioDecisionFailedData{
		Ticker: ticker,
		Kind:   string(domain.KindPortfolioDecisionFailed),
		Error:  err.Error(),
	})
}

func (o *Orchestrator) agentName(agentID string) string {
	if o.registry != nil {
		if d, ok := o.registry.Lookup(agentID); ok {
			return d.Name
		}
	}
	return agentID
}

func stripReasoning(analysis *domain.TickerAnalysis) {
	for i := range analysis.AgentAnalyses {
		analysis.AgentAnalyses[i].Reasoning = nil
	}
	if analysis.PortfolioDecision != nil {
		analysis.PortfolioDecision.Reasoning = nil
	}
}
