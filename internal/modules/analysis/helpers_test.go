package analysis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/hedgefund/internal/domain"
	"github.com/aristath/hedgefund/internal/events"
	"github.com/aristath/hedgefund/internal/modules/agents"
	"github.com/aristath/hedgefund/internal/workers"
)

// fakeInvoker is an instrumented Invoker. fn decides each outcome; calls and
// peak concurrency are recorded.
type fakeInvoker struct {
	fn    func(ctx context.Context, agentID, ticker string) (domain.AgentResult, error)
	delay time.Duration

	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeInvoker) Invoke(ctx context.Context, agentID, ticker, date string) (domain.AgentResult, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, ticker+"/"+agentID)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fn == nil {
		return domain.AgentResult{Signal: domain.SignalBullish, Confidence: 80, Reasoning: domain.StringPtr("because")}, nil
	}
	return f.fn(ctx, agentID, ticker)
}

func (f *fakeInvoker) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func agentIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("agent_%02d", i)
	}
	return ids
}

func analysisIDs(analyses []domain.AgentAnalysis) []string {
	ids := make([]string, len(analyses))
	for i, a := range analyses {
		ids[i] = a.AgentID
	}
	return ids
}

func newTestEvents() (*events.Manager, *recorder) {
	manager := events.NewManager(events.NewBus(), zerolog.Nop())
	rec := &recorder{}
	manager.Bus().SubscribeAll(rec.record)
	return manager, rec
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) record(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestOrchestrator(invoker Invoker, decider PortfolioDecider, manager *events.Manager) *Orchestrator {
	registry := agents.NewRegistry(nil, zerolog.Nop())
	return NewOrchestrator(invoker, registry, workers.NewWorkerPool(workers.DefaultWorkers), decider, manager, zerolog.Nop())
}

type deciderFunc func(ctx context.Context, ticker, date string, analyses []domain.AgentAnalysis) (*domain.PortfolioDecision, error)

func (f deciderFunc) Decide(ctx context.Context, ticker, date string, analyses []domain.AgentAnalysis) (*domain.PortfolioDecision, error) {
	return f(ctx, ticker, date, analyses)
}
