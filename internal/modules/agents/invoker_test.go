package agents

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/hedgefund/internal/domain"
	"github.com/aristath/hedgefund/internal/events"
)

func newTestInvoker(t *testing.T, dir Directory, timeout time.Duration) (*Invoker, *[]events.Event) {
	t.Helper()
	manager := events.NewManager(events.NewBus(), zerolog.Nop())
	var emitted []events.Event
	manager.Bus().SubscribeAll(func(e events.Event) { emitted = append(emitted, e) })

	registry := NewRegistry(dir, zerolog.Nop())
	return NewInvoker(registry, manager, timeout, zerolog.Nop()), &emitted
}

func TestInvoker_Invoke_Success(t *testing.T) {
	invoker, emitted := newTestInvoker(t, Directory{
		"valuation": Static(CapabilityFunc(func(ctx context.Context, ticker, date string) (RawResult, error) {
			assert.Equal(t, "AAPL", ticker)
			assert.Equal(t, "2024-01-02", date)
			return ResultFromMap(map[string]any{"signal": "buy", "confidence": 0.9, "reasoning": "cheap"}), nil
		})),
	}, time.Second)

	result, err := invoker.Invoke(context.Background(), "valuation", "AAPL", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, domain.SignalBullish, result.Signal)
	assert.InDelta(t, 90.0, result.Confidence, 1e-9)
	require.NotNil(t, result.Reasoning)
	assert.Equal(t, "cheap", *result.Reasoning)

	require.Len(t, *emitted, 1)
	assert.Equal(t, events.AgentSucceeded, (*emitted)[0].Type)
}

func TestInvoker_Invoke_Failures(t *testing.T) {
	tests := []struct {
		name       string
		agentID    string
		capability Factory
		timeout    time.Duration
		kind       domain.ErrorKind
	}{
		{
			name:    "unknown agent",
			agentID: "not_a_real_agent",
			kind:    domain.KindAgentNotFound,
		},
		{
			name:    "construction failure",
			agentID: "sentiment",
			capability: func() (Capability, error) {
				return nil, errors.New("no credentials")
			},
			kind: domain.KindAgentConstructionFailed,
		},
		{
			name:    "construction panic",
			agentID: "sentiment",
			capability: func() (Capability, error) {
				panic("constructor exploded")
			},
			kind: domain.KindAgentExecutionFailed,
		},
		{
			name:    "execution error",
			agentID: "sentiment",
			capability: Static(CapabilityFunc(func(ctx context.Context, ticker, date string) (RawResult, error) {
				return RawResult{}, errors.New("upstream 500")
			})),
			kind: domain.KindAgentExecutionFailed,
		},
		{
			name:    "execution panic",
			agentID: "sentiment",
			capability: Static(CapabilityFunc(func(ctx context.Context, ticker, date string) (RawResult, error) {
				var m map[string]int
				m["boom"] = 1
				return RawResult{}, nil
			})),
			kind: domain.KindAgentExecutionFailed,
		},
		{
			name:    "timeout with context-ignoring capability",
			agentID: "sentiment",
			capability: Static(CapabilityFunc(func(ctx context.Context, ticker, date string) (RawResult, error) {
				time.Sleep(200 * time.Millisecond)
				return RawResult{}, nil
			})),
			timeout: 20 * time.Millisecond,
			kind:    domain.KindAgentExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := Directory{}
			if tt.capability != nil {
				dir[tt.agentID] = tt.capability
			}
			invoker, emitted := newTestInvoker(t, dir, tt.timeout)

			_, err := invoker.Invoke(context.Background(), tt.agentID, "MSFT", "2024-01-02")
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))

			var derr *domain.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.agentID, derr.AgentID)
			assert.Equal(t, "MSFT", derr.Ticker)

			require.Len(t, *emitted, 1)
			data, ok := (*emitted)[0].Data.(*events.AgentFailedData)
			require.True(t, ok)
			assert.Equal(t, string(tt.kind), data.Kind)
		})
	}
}

func TestInvoker_Invoke_TimeoutCause(t *testing.T) {
	invoker, _ := newTestInvoker(t, Directory{
		"technicals": Static(CapabilityFunc(func(ctx context.Context, ticker, date string) (RawResult, error) {
			<-ctx.Done()
			return RawResult{}, ctx.Err()
		})),
	}, 10*time.Millisecond)

	_, err := invoker.Invoke(context.Background(), "technicals", "AAPL", "2024-01-02")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrAgentExecutionFailed)
}

func TestInvoker_Invoke_WaitsForLateCapability(t *testing.T) {
	var finished atomic.Bool
	invoker, emitted := newTestInvoker(t, Directory{
		"technicals": Static(CapabilityFunc(func(ctx context.Context, ticker, date string) (RawResult, error) {
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
			return ResultFromMap(map[string]any{"signal": "bullish"}), nil
		})),
	}, 5*time.Millisecond)

	_, err := invoker.Invoke(context.Background(), "technicals", "AAPL", "2024-01-02")
	require.Error(t, err)
	assert.True(t, finished.Load(), "Invoke returned while the capability was still running")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrAgentExecutionFailed)

	require.Len(t, *emitted, 1)
	assert.Equal(t, events.AgentFailed, (*emitted)[0].Type)
}

func TestInvoker_Invoke_CancelledParent(t *testing.T) {
	invoker, _ := newTestInvoker(t, Directory{
		"technicals": Static(CapabilityFunc(func(ctx context.Context, ticker, date string) (RawResult, error) {
			<-ctx.Done()
			return RawResult{}, ctx.Err()
		})),
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := invoker.Invoke(ctx, "technicals", "AAPL", "2024-01-02")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvoker_Invoke_MissingFieldsDefault(t *testing.T) {
	invoker, _ := newTestInvoker(t, Directory{
		"fundamentals": Static(CapabilityFunc(func(ctx context.Context, ticker, date string) (RawResult, error) {
			return RawResult{}, nil
		})),
	}, time.Second)

	result, err := invoker.Invoke(context.Background(), "fundamentals", "AAPL", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, domain.SignalNeutral, result.Signal)
	assert.Equal(t, 50.0, result.Confidence)
	assert.Nil(t, result.Reasoning)
}
