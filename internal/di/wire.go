// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/hedgefund/internal/config"
	"github.com/aristath/hedgefund/internal/events"
	"github.com/aristath/hedgefund/internal/metrics"
	"github.com/aristath/hedgefund/internal/modules/agents"
	"github.com/aristath/hedgefund/internal/modules/analysis"
	"github.com/aristath/hedgefund/internal/workers"
)

// Wire initializes all dependencies and returns a fully configured container.
// Agent capabilities come from the HTTP directory at cfg.AgentServiceURL.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	return WireWithDirectory(cfg, agents.NewHTTPDirectory(cfg.AgentServiceURL, nil, agents.KnownIDs()), log)
}

// WireWithDirectory is Wire with an explicit capability directory.
// Order of operations:
// 1. Observability (bus, manager, metrics)
// 2. Agents (registry, invoker)
// 3. Analysis (pool, decider, orchestrator, service)
func WireWithDirectory(cfg *config.Config, directory agents.Directory, log zerolog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Container{AgentDirectory: directory}

	// Step 1: Observability
	c.EventBus = events.NewBus()
	c.EventManager = events.NewManager(c.EventBus, log)
	c.Metrics = metrics.New()
	c.Metrics.Subscribe(c.EventBus)

	// Step 2: Agents
	c.AgentRegistry = agents.NewRegistry(directory, log)
	c.AgentInvoker = agents.NewInvoker(c.AgentRegistry, c.EventManager, cfg.AgentTimeout, log)

	// Step 3: Analysis
	c.WorkerPool = workers.NewWorkerPool(cfg.AgentWorkerCap)
	c.Decider = analysis.NewConsensusDecider()
	c.Orchestrator = analysis.NewOrchestrator(c.AgentInvoker, c.AgentRegistry, c.WorkerPool, c.Decider, c.EventManager, log)
	c.AnalysisService = analysis.NewService(c.AgentRegistry, c.AgentInvoker, c.Orchestrator, cfg.TickerConcurrency, c.EventManager, log)

	if cfg.AnalysisRateLimit > 0 {
		c.AnalysisLimiter = rate.NewLimiter(rate.Limit(cfg.AnalysisRateLimit), cfg.AnalysisRateBurst)
	}

	log.Info().
		Int("agents", len(c.AgentRegistry.IDs())).
		Int("worker_cap", c.WorkerPool.Size()).
		Int("ticker_concurrency", cfg.TickerConcurrency).
		Bool("agent_service", cfg.AgentServiceURL != "").
		Msg("Dependency injection wiring completed successfully")

	return c, nil
}
