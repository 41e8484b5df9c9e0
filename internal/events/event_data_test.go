package events

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalLogObject(t *testing.T, data EventData) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	log.Info().EmbedObject(data).Msg("")

	var fields map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	return fields
}

func TestEventData_EventTypes(t *testing.T) {
	tests := []struct {
		name     string
		data     EventData
		expected EventType
	}{
		{"agent succeeded", &AgentSucceededData{}, AgentSucceeded},
		{"agent failed", &AgentFailedData{}, AgentFailed},
		{"ticker analyzed", &TickerAnalyzedData{}, TickerAnalyzed},
		{"ticker skipped", &TickerSkippedData{}, TickerSkipped},
		{"decision made", &PortfolioDecisionData{}, PortfolioDecisionMade},
		{"decision failed", &PortfolioDecisionFailedData{}, PortfolioDecisionFailed},
		{"batch completed", &BatchCompletedData{}, BatchCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.data.EventType())
		})
	}
}

func TestAgentFailedData_LogFields(t *testing.T) {
	fields := marshalLogObject(t, &AgentFailedData{
		AgentID:  "warren_buffett",
		Ticker:   "AAPL",
		Kind:     "AGENT_EXECUTION_FAILED",
		Error:    "boom",
		Duration: 5 * time.Millisecond,
	})

	assert.Equal(t, "warren_buffett", fields["agent_id"])
	assert.Equal(t, "AAPL", fields["ticker"])
	assert.Equal(t, "AGENT_EXECUTION_FAILED", fields["kind"])
	assert.Equal(t, "boom", fields["cause"])
	assert.Contains(t, fields, "duration")
}

func TestAgentSucceededData_LogFields(t *testing.T) {
	fields := marshalLogObject(t, &AgentSucceededData{
		AgentID:    "peter_lynch",
		Ticker:     "MSFT",
		Signal:     "BULLISH",
		Confidence: 80,
	})

	assert.Equal(t, "peter_lynch", fields["agent_id"])
	assert.Equal(t, "MSFT", fields["ticker"])
	assert.Equal(t, "BULLISH", fields["signal"])
	assert.Equal(t, 80.0, fields["confidence"])
}

func TestTickerSkippedData_JSON(t *testing.T) {
	data := TickerSkippedData{Ticker: "XYZ", Kind: "TICKER_YIELDED_NO_RESULTS", Failed: 3}

	jsonData, err := json.Marshal(data)
	require.NoError(t, err)

	var decoded TickerSkippedData
	require.NoError(t, json.Unmarshal(jsonData, &decoded))
	assert.Equal(t, data, decoded)
}
