package agents

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aristath/hedgefund/internal/domain"
)

// DefaultConfidence is used when an agent reports no usable confidence
const DefaultConfidence = 50.0

// RawResult is what a capability returns. Every field is optional.
// Confidence is either a fraction in [0, 1] or a percentage in (1, 100].
// With ConfidencePercent set it is always a percentage in [0, 100].
type RawResult struct {
	Signal            *string
	Confidence        *float64
	ConfidencePercent bool
	Reasoning         *string
}

// confidenceWords maps textual confidence levels to percentages
var confidenceWords = map[string]float64{
	"very high": 90,
	"very_high": 90,
	"high":      75,
	"medium":    50,
	"moderate":  50,
	"low":       25,
	"very low":  10,
	"very_low":  10,
}

// ResultFromMap adapts a generic key/value result (as decoded from JSON) into
// a RawResult. Keys are signal, confidence and reasoning; all optional.
func ResultFromMap(m map[string]any) RawResult {
	if m == nil {
		return RawResult{}
	}
	return ResultFromFields(m["signal"], m["confidence"], m["reasoning"])
}

// ResultFromFields adapts loosely typed fields into a RawResult. Integers and
// "75%" strings are percentages; floats follow NormalizeConfidence.
func ResultFromFields(signal, confidence, reasoning any) RawResult {
	c, percent := confidenceValue(confidence)
	return RawResult{
		Signal:            signalValue(signal),
		Confidence:        c,
		ConfidencePercent: percent,
		Reasoning:         reasoningValue(reasoning),
	}
}

// Normalize converts a raw result into a domain result with a known signal
// and a confidence in [0, 100]
func Normalize(raw RawResult) domain.AgentResult {
	return domain.AgentResult{
		Signal:     NormalizeSignal(raw.Signal),
		Confidence: normalizeRawConfidence(raw),
		Reasoning:  raw.Reasoning,
	}
}

// NormalizeSignal maps buy/long style signals to BULLISH, sell/short style
// signals to BEARISH and anything else, including a missing signal, to NEUTRAL
func NormalizeSignal(signal *string) domain.Signal {
	if signal == nil {
		return domain.SignalNeutral
	}

	switch strings.ToUpper(strings.TrimSpace(*signal)) {
	case "BUY", "BULLISH", "LONG":
		return domain.SignalBullish
	case "SELL", "BEARISH", "SHORT":
		return domain.SignalBearish
	default:
		return domain.SignalNeutral
	}
}

// NormalizeConfidence scales fractions in [0, 1] to percentages, keeps values
// in (1, 100] and falls back to DefaultConfidence for anything else
func NormalizeConfidence(confidence *float64) float64 {
	if confidence == nil {
		return DefaultConfidence
	}

	c := *confidence
	switch {
	case math.IsNaN(c):
		return DefaultConfidence
	case c >= 0 && c <= 1:
		return c * 100
	case c > 1 && c <= 100:
		return c
	default:
		return DefaultConfidence
	}
}

// NormalizePercent keeps percentages in [0, 100] and falls back to
// DefaultConfidence for anything else
func NormalizePercent(confidence *float64) float64 {
	if confidence == nil {
		return DefaultConfidence
	}
	c := *confidence
	if math.IsNaN(c) || c < 0 || c > 100 {
		return DefaultConfidence
	}
	return c
}

func normalizeRawConfidence(raw RawResult) float64 {
	if raw.ConfidencePercent {
		return NormalizePercent(raw.Confidence)
	}
	return NormalizeConfidence(raw.Confidence)
}

func signalValue(v any) *string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return &s
	case domain.Signal:
		str := string(s)
		return &str
	case fmt.Stringer:
		str := s.String()
		return &str
	default:
		return nil
	}
}

// confidenceValue reports whether the value is a percentage. A fraction of
// one is only possible for floats: an integer 1 means 1%.
func confidenceValue(v any) (*float64, bool) {
	var f float64
	percent := false
	switch c := v.(type) {
	case nil:
		return nil, false
	case float64:
		f = c
	case float32:
		f = float64(c)
	case int:
		f, percent = float64(c), true
	case int32:
		f, percent = float64(c), true
	case int64:
		f, percent = float64(c), true
	case json.Number:
		if i, err := c.Int64(); err == nil {
			f, percent = float64(i), true
			break
		}
		parsed, err := c.Float64()
		if err != nil {
			return nil, false
		}
		f = parsed
	case string:
		return parseConfidenceString(c)
	default:
		return nil, false
	}
	return &f, percent
}

// parseConfidenceString handles "75%", "0.8", "80" and textual levels such as
// "high"
func parseConfidenceString(s string) (*float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	if strings.HasSuffix(s, "%") {
		if p, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64); err == nil {
			return &p, true
		}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &f, false
	}

	if f, ok := confidenceWords[strings.ToLower(s)]; ok {
		return &f, true
	}

	return nil, false
}

func reasoningValue(v any) *string {
	switch r := v.(type) {
	case nil:
		return nil
	case string:
		return &r
	case *string:
		return r
	default:
		// Agents sometimes return structured reasoning; keep it as JSON text
		b, err := json.Marshal(r)
		if err != nil {
			s := fmt.Sprint(r)
			return &s
		}
		s := string(b)
		return &s
	}
}
