// Package events carries structured observability events for the analysis pipeline.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	AgentSucceeded          EventType = "AGENT_SUCCEEDED"
	AgentFailed             EventType = "AGENT_FAILED"
	TickerAnalyzed          EventType = "TICKER_ANALYZED"
	TickerSkipped           EventType = "TICKER_SKIPPED"
	PortfolioDecisionMade   EventType = "PORTFOLIO_DECISION_MADE"
	PortfolioDecisionFailed EventType = "PORTFOLIO_DECISION_FAILED"
	BatchCompleted          EventType = "BATCH_COMPLETED"
)

// Event is a single emitted event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}
