package agents

import "context"

// Capability is a single agent strategy. Implementations must be safe to call
// from one goroutine at a time; a fresh capability is built per invocation.
type Capability interface {
	Analyze(ctx context.Context, ticker, date string) (RawResult, error)
}

// CapabilityFunc adapts a function to the Capability interface
type CapabilityFunc func(ctx context.Context, ticker, date string) (RawResult, error)

// Analyze calls f
func (f CapabilityFunc) Analyze(ctx context.Context, ticker, date string) (RawResult, error) {
	return f(ctx, ticker, date)
}

// Factory builds a capability. Construction may fail, for example when a
// required external dependency is not configured.
type Factory func() (Capability, error)

// Directory is the registration table from agent id to factory, populated
// once at startup
type Directory map[string]Factory

// Static returns a factory that always yields c
func Static(c Capability) Factory {
	return func() (Capability, error) {
		return c, nil
	}
}
