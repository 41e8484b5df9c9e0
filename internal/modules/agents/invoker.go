package agents

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/hedgefund/internal/domain"
	"github.com/aristath/hedgefund/internal/events"
)

// Invoker runs one agent capability for one ticker and date. Every fault,
// including panics and timeouts, is returned as a tagged *domain.Error and
// never escapes to sibling invocations. A result delivered after the timeout
// counts as a failure.
type Invoker struct {
	registry     *Registry
	eventManager *events.Manager
	timeout      time.Duration
	log          zerolog.Logger
}

// NewInvoker creates an invoker. A zero timeout disables the per-agent limit
// and only the caller's context applies.
func NewInvoker(registry *Registry, eventManager *events.Manager, timeout time.Duration, log zerolog.Logger) *Invoker {
	return &Invoker{
		registry:     registry,
		eventManager: eventManager,
		timeout:      timeout,
		log:          log.With().Str("component", "agent_invoker").Logger(),
	}
}

// Registry returns the registry the invoker resolves agents from
func (i *Invoker) Registry() *Registry {
	return i.registry
}

type outcome struct {
	raw RawResult
	err error
}

// Invoke resolves agentID, calls its capability and normalizes the result
func (i *Invoker) Invoke(ctx context.Context, agentID, ticker, date string) (domain.AgentResult, error) {
	start := time.Now()

	if _, ok := i.registry.Lookup(agentID); !ok {
		err := domain.NewError(domain.KindAgentNotFound, agentID, ticker, nil)
		i.emitFailure(agentID, ticker, err, time.Since(start))
		return domain.AgentResult{}, err
	}

	callCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	// The capability runs on the caller's goroutine so a worker slot stays
	// taken until it returns, even when it ignores callCtx.
	out := i.run(callCtx, agentID, ticker, date)
	if out.err == nil && callCtx.Err() != nil {
		out = outcome{err: domain.NewError(domain.KindAgentExecutionFailed, agentID, ticker, callCtx.Err())}
	}

	if out.err != nil {
		i.emitFailure(agentID, ticker, out.err, time.Since(start))
		return domain.AgentResult{}, out.err
	}

	result := Normalize(out.raw)
	i.eventManager.EmitTyped("agents", &events.AgentSucceededData{
		AgentID:    agentID,
		Ticker:     ticker,
		Signal:     string(result.Signal),
		Confidence: result.Confidence,
		Duration:   time.Since(start),
	})

	return result, nil
}

// run constructs and calls the capability, converting panics into errors
func (i *Invoker) run(ctx context.Context, agentID, ticker, date string) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			i.log.Debug().
				Str("agent_id", agentID).
				Str("ticker", ticker).
				Bytes("stack", debug.Stack()).
				Msg("Recovered agent panic")
			out = outcome{err: domain.NewError(domain.KindAgentExecutionFailed, agentID, ticker, fmt.Errorf("panic: %v", r))}
		}
	}()

	capability, err := i.registry.ResolveCapability(agentID)
	if err != nil {
		if e, ok := err.(*domain.Error); ok {
			e.Ticker = ticker
		}
		return outcome{err: err}
	}

	raw, err := capability.Analyze(ctx, ticker, date)
	if err != nil {
		return outcome{err: domain.NewError(domain.KindAgentExecutionFailed, agentID, ticker, err)}
	}

	return outcome{raw: raw}
}

func (i *Invoker) emitFailure(agentID, ticker string, err error, d time.Duration) {
	i.eventManager.EmitTyped("agents", &events.AgentFailedData{
		AgentID:  agentID,
		Ticker:   ticker,
		Kind:     string(domain.KindOf(err)),
		Error:    err.Error(),
		Duration: d,
	})
}
