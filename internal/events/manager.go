package events

import (
	"time"

	"github.com/rs/zerolog"
)

// Manager handles event emission and logging
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager. A nil bus gets a private one.
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	if bus == nil {
		bus = NewBus()
	}
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the underlying bus for subscriptions
func (m *Manager) Bus() *Bus {
	return m.bus
}

// EmitTyped emits an event with typed data to the bus and logs it
func (m *Manager) EmitTyped(module string, data EventData) {
	if m == nil || data == nil {
		return
	}

	event := Event{
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Module:    module,
		Data:      data,
	}

	m.bus.Emit(event)

	m.log.WithLevel(levelFor(event.Type)).
		Str("event_type", string(event.Type)).
		Str("module", module).
		EmbedObject(data).
		Msg("Event emitted")
}

// levelFor returns the log level for an event type: failures and skips are
// warnings, routine progress is debug
func levelFor(eventType EventType) zerolog.Level {
	switch eventType {
	case AgentFailed, TickerSkipped, PortfolioDecisionFailed:
		return zerolog.WarnLevel
	case BatchCompleted:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
