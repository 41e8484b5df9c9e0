package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the analysis pipeline
type ErrorKind string

const (
	KindAgentNotFound           ErrorKind = "AGENT_NOT_FOUND"
	KindAgentConstructionFailed ErrorKind = "AGENT_CONSTRUCTION_FAILED"
	KindAgentExecutionFailed    ErrorKind = "AGENT_EXECUTION_FAILED"
	KindTickerYieldedNoResults  ErrorKind = "TICKER_YIELDED_NO_RESULTS"
	KindPortfolioDecisionFailed ErrorKind = "PORTFOLIO_DECISION_FAILED"
	KindInvalidRequest          ErrorKind = "INVALID_REQUEST"
	KindAnalysisFailed          ErrorKind = "ANALYSIS_FAILED"
)

// Sentinel errors for errors.Is matching. Any *Error with the same kind matches.
var (
	ErrAgentNotFound           = &Error{Kind: KindAgentNotFound}
	ErrAgentConstructionFailed = &Error{Kind: KindAgentConstructionFailed}
	ErrAgentExecutionFailed    = &Error{Kind: KindAgentExecutionFailed}
	ErrTickerYieldedNoResults  = &Error{Kind: KindTickerYieldedNoResults}
	ErrPortfolioDecisionFailed = &Error{Kind: KindPortfolioDecisionFailed}
	ErrInvalidRequest          = &Error{Kind: KindInvalidRequest}
	ErrAnalysisFailed          = &Error{Kind: KindAnalysisFailed}
)

// Error is a tagged pipeline failure carrying the agent and ticker it concerns
type Error struct {
	Kind    ErrorKind
	AgentID string
	Ticker  string
	Message string
	Err     error
}

// NewError creates a tagged error
func NewError(kind ErrorKind, agentID, ticker string, cause error) *Error {
	return &Error{Kind: kind, AgentID: agentID, Ticker: ticker, Err: cause}
}

// InvalidRequest creates an INVALID_REQUEST error with a client-facing message
func InvalidRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.AgentID != "" {
		msg += " agent=" + e.AgentID
	}
	if e.Ticker != "" {
		msg += " ticker=" + e.Ticker
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
