// Package domain holds the analysis types and error taxonomy shared by every module.
package domain

import (
	"strings"
	"time"
)

// DateLayout is the analysis date format (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// Signal is the directional output of an agent
type Signal string

const (
	SignalBullish Signal = "BULLISH"
	SignalBearish Signal = "BEARISH"
	SignalNeutral Signal = "NEUTRAL"
)

// Valid reports whether s is one of the three known signals
func (s Signal) Valid() bool {
	switch s {
	case SignalBullish, SignalBearish, SignalNeutral:
		return true
	}
	return false
}

// Direction returns +1 for bullish, -1 for bearish and 0 otherwise
func (s Signal) Direction() float64 {
	switch s {
	case SignalBullish:
		return 1
	case SignalBearish:
		return -1
	}
	return 0
}

// AgentResult is the normalized output of a single agent invocation.
// Confidence is always within [0, 100].
type AgentResult struct {
	Signal     Signal
	Confidence float64
	Reasoning  *string
}

// AgentAnalysis is one agent's entry inside a TickerAnalysis
type AgentAnalysis struct {
	AgentID    string  `json:"agent_id"`
	AgentName  string  `json:"agent_name"`
	Signal     Signal  `json:"signal"`
	Confidence float64 `json:"confidence"`
	Reasoning  *string `json:"reasoning"`
}

// PortfolioAction is the trade action proposed by a portfolio decision
type PortfolioAction string

const (
	ActionBuy   PortfolioAction = "BUY"
	ActionSell  PortfolioAction = "SELL"
	ActionShort PortfolioAction = "SHORT"
	ActionCover PortfolioAction = "COVER"
	ActionHold  PortfolioAction = "HOLD"
)

// PortfolioDecision is the optional downstream annotation computed from the
// per-agent results of a ticker
type PortfolioDecision struct {
	Action     PortfolioAction `json:"action"`
	Quantity   float64         `json:"quantity"`
	Confidence float64         `json:"confidence"`
	Reasoning  *string         `json:"reasoning"`
}

// TickerAnalysis holds every successful agent analysis for one ticker.
// AgentAnalyses is in completion order, not submission order.
type TickerAnalysis struct {
	Ticker            string             `json:"ticker"`
	Date              string             `json:"date"`
	AgentAnalyses     []AgentAnalysis    `json:"agent_analyses"`
	PortfolioDecision *PortfolioDecision `json:"portfolio_decision"`
}

// SkippedTicker records a ticker dropped from a batch because no agent succeeded
type SkippedTicker struct {
	Ticker string    `json:"ticker"`
	Reason ErrorKind `json:"reason"`
	Failed int       `json:"failed_agents"`
}

// BatchResult is the output of a multi-ticker analysis. Analyses follows the
// input ticker order; tickers without any successful agent are listed in Skipped.
type BatchResult struct {
	Analyses []TickerAnalysis `json:"analyses"`
	Skipped  []SkippedTicker  `json:"skipped"`
}

// Today returns the current local date in DateLayout
func Today() string {
	return time.Now().Format(DateLayout)
}

// ValidDate reports whether s is a calendar date in DateLayout
func ValidDate(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// NormalizeTicker trims and upper-cases a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
