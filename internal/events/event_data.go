package events

import (
	"time"

	"github.com/rs/zerolog"
)

// EventData is the interface that all event data types must implement.
// Data is embedded into the log entry as structured fields.
type EventData interface {
	zerolog.LogObjectMarshaler

	// EventType returns the event type this data is associated with
	EventType() EventType
}

// AgentSucceededData contains data for AgentSucceeded events
type AgentSucceededData struct {
	AgentID    string        `json:"agent_id"`
	Ticker     string        `json:"ticker"`
	Signal     string        `json:"signal"`
	Confidence float64       `json:"confidence"`
	Duration   time.Duration `json:"duration"`
}

// EventType returns the event type for AgentSucceededData
func (d *AgentSucceededData) EventType() EventType {
	return AgentSucceeded
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (d *AgentSucceededData) MarshalZerologObject(e *zerolog.Event) {
	e.Str("agent_id", d.AgentID).
		Str("ticker", d.Ticker).
		Str("signal", d.Signal).
		Float64("confidence", d.Confidence).
		Dur("duration", d.Duration)
}

// AgentFailedData contains data for AgentFailed events.
// Kind is AGENT_NOT_FOUND, AGENT_CONSTRUCTION_FAILED or AGENT_EXECUTION_FAILED.
type AgentFailedData struct {
	AgentID  string        `json:"agent_id"`
	Ticker   string        `json:"ticker"`
	Kind     string        `json:"kind"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

// EventType returns the event type for AgentFailedData
func (d *AgentFailedData) EventType() EventType {
	return AgentFailed
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (d *AgentFailedData) MarshalZerologObject(e *zerolog.Event) {
	e.Str("agent_id", d.AgentID).
		Str("ticker", d.Ticker).
		Str("kind", d.Kind).
		Str("cause", d.Error).
		Dur("duration", d.Duration)
}

// TickerAnalyzedData contains data for TickerAnalyzed events
type TickerAnalyzedData struct {
	Ticker    string        `json:"ticker"`
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// EventType returns the event type for TickerAnalyzedData
func (d *TickerAnalyzedData) EventType() EventType {
	return TickerAnalyzed
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (d *TickerAnalyzedData) MarshalZerologObject(e *zerolog.Event) {
	e.Str("ticker", d.Ticker).
		Int("requested", d.Requested).
		Int("succeeded", d.Succeeded).
		Int("failed", d.Failed).
		Dur("duration", d.Duration)
}

// TickerSkippedData contains data for TickerSkipped events
type TickerSkippedData struct {
	Ticker string `json:"ticker"`
	Kind   string `json:"kind"`
	Failed int    `json:"failed"`
}

// EventType returns the event type for TickerSkippedData
func (d *TickerSkippedData) EventType() EventType {
	return TickerSkipped
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (d *TickerSkippedData) MarshalZerologObject(e *zerolog.Event) {
	e.Str("ticker", d.Ticker).
		Str("kind", d.Kind).
		Int("failed", d.Failed)
}

// PortfolioDecisionData contains data for PortfolioDecisionMade events
type PortfolioDecisionData struct {
	Ticker     string  `json:"ticker"`
	Action     string  `json:"action"`
	Quantity   float64 `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

// EventType returns the event type for PortfolioDecisionData
func (d *PortfolioDecisionData) EventType() EventType {
	return PortfolioDecisionMade
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (d *PortfolioDecisionData) MarshalZerologObject(e *zerolog.Event) {
	e.Str("ticker", d.Ticker).
		Str("action", d.Action).
		Float64("quantity", d.Quantity).
		Float64("confidence", d.Confidence)
}

// PortfolioDecisionFailedData contains data for PortfolioDecisionFailed events
type PortfolioDecisionFailedData struct {
	Ticker string `json:"ticker"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

// EventType returns the event type for PortfolioDecisionFailedData
func (d *PortfolioDecisionFailedData) EventType() EventType {
	return PortfolioDecisionFailed
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (d *PortfolioDecisionFailedData) MarshalZerologObject(e *zerolog.Event) {
	e.Str("ticker", d.Ticker).
		Str("kind", d.Kind).
		Str("cause", d.Error)
}

// BatchCompletedData contains data for BatchCompleted events
type BatchCompletedData struct {
	Tickers  int           `json:"tickers"`
	Agents   int           `json:"agents"`
	Analyzed int           `json:"analyzed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// EventType returns the event type for BatchCompletedData
func (d *BatchCompletedData) EventType() EventType {
	return BatchCompleted
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (d *BatchCompletedData) MarshalZerologObject(e *zerolog.Event) {
	e.Int("tickers", d.Tickers).
		Int("agents", d.Agents).
		Int("analyzed", d.Analyzed).
		Int("skipped", d.Skipped).
		Dur("duration", d.Duration)
}
