/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived component of the API and is passed to
 * the server, which builds HTTP handlers from it.
 */
package di

import (
	"golang.org/x/time/rate"

	"github.com/aristath/hedgefund/internal/events"
	"github.com/aristath/hedgefund/internal/metrics"
	"github.com/aristath/hedgefund/internal/modules/agents"
	"github.com/aristath/hedgefund/internal/modules/analysis"
	"github.com/aristath/hedgefund/internal/workers"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Observability: event bus, event manager (leveled logs) and Prometheus collector
 * - Agents: registry over the capability directory, invoker with per-agent timeout
 * - Analysis: worker pool, portfolio decider, ticker orchestrator, multi-ticker service
 * - HTTP support: analysis rate limiter (nil when disabled)
 */
type Container struct {
	// Observability
	EventBus     *events.Bus
	EventManager *events.Manager
	Metrics      *metrics.Collector

	// Agents
	AgentDirectory agents.Directory
	AgentRegistry  *agents.Registry
	AgentInvoker   *agents.Invoker

	// Analysis
	WorkerPool      *workers.WorkerPool
	Decider         analysis.PortfolioDecider
	Orchestrator    *analysis.Orchestrator
	AnalysisService *analysis.Service

	AnalysisLimiter *rate.Limiter
}
