package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/hedgefund/internal/domain"
)

// PortfolioDecider turns the collected agent analyses for one ticker into a
// portfolio decision. It runs after the fan-out and only when the portfolio
// manager role was requested.
type PortfolioDecider interface {
	Decide(ctx context.Context, ticker, date string, analyses []domain.AgentAnalysis) (*domain.PortfolioDecision, error)
}

// PlaceholderDecider always holds
type PlaceholderDecider struct{}

// Decide returns a HOLD decision with neutral confidence
func (PlaceholderDecider) Decide(ctx context.Context, ticker, date string, analyses []domain.AgentAnalysis) (*domain.PortfolioDecision, error) {
	return &domain.PortfolioDecision{
		Action:     domain.ActionHold,
		Quantity:   0,
		Confidence: 50.0,
		Reasoning:  domain.StringPtr("Portfolio decision placeholder"),
	}, nil
}

// DefaultConsensusThreshold is the weighted score needed to leave HOLD
const DefaultConsensusThreshold = 0.2

// ConsensusDecider votes on direction with each signal weighted by its
// agent's confidence. The weighted mean of directions (+1 bullish, -1 bearish,
// 0 neutral) above Threshold buys, below -Threshold shorts, otherwise holds.
// Quantity is always 0: position sizing needs portfolio state this service
// does not hold.
type ConsensusDecider struct {
	Threshold float64
}

// NewConsensusDecider creates a decider with the default threshold
func NewConsensusDecider() *ConsensusDecider {
	return &ConsensusDecider{Threshold: DefaultConsensusThreshold}
}

// Decide computes the confidence-weighted consensus
func (d *ConsensusDecider) Decide(ctx context.Context, ticker, date string, analyses []domain.AgentAnalysis) (*domain.PortfolioDecision, error) {
	if len(analyses) == 0 {
		return nil, fmt.Errorf("no agent analyses for %s", ticker)
	}

	threshold := d.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultConsensusThreshold
	}

	directions := make([]float64, len(analyses))
	weights := make([]float64, len(analyses))
	var bullish, bearish, neutral int
	var weightSum float64
	for i, a := range analyses {
		directions[i] = a.Signal.Direction()
		weights[i] = a.Confidence / 100
		weightSum += weights[i]

		switch a.Signal {
		case domain.SignalBullish:
			bullish++
		case domain.SignalBearish:
			bearish++
		default:
			neutral++
		}
	}

	var score, dispersion float64
	if weightSum > 0 {
		score = stat.Mean(directions, weights)
		if len(analyses) > 1 {
			dispersion = stat.StdDev(directions, weights)
		}
	}
	if math.IsNaN(dispersion) {
		dispersion = 0
	}

	action := domain.ActionHold
	var confidence float64
	switch {
	case score >= threshold:
		action = domain.ActionBuy
		confidence = score * 100
	case score <= -threshold:
		action = domain.ActionShort
		confidence = -score * 100
	default:
		confidence = (1 - math.Abs(score)/threshold) * 100
	}

	reasoning := fmt.Sprintf(
		"%d bullish, %d bearish, %d neutral; weighted score %.2f, dispersion %.2f",
		bullish, bearish, neutral, score, dispersion,
	)

	return &domain.PortfolioDecision{
		Action:     action,
		Quantity:   0,
		Confidence: math.Round(clamp(confidence, 0, 100)*10) / 10,
		Reasoning:  &reasoning,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
