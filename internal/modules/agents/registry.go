// Package agents provides the agent registry, capability directory and the
// invoker that turns one capability call into a normalized result.
package agents

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/hedgefund/internal/domain"
)

// Reserved aggregation-only roles. They are valid agent ids but are never
// dispatched in the per-agent fan-out.
const (
	RiskManagerID      = "risk_manager"
	PortfolioManagerID = "portfolio_manager"
)

// Descriptor is the public metadata of an agent
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Icon        string `json:"icon"`
	Active      bool   `json:"active"`
}

// descriptors is the fixed agent table, in listing order
var descriptors = []Descriptor{
	{ID: "ben_graham", Name: "Ben Graham", Description: "The godfather of value investing, only buys hidden gems with a margin of safety", Type: "value", Category: "value_investing", Icon: "💰"},
	{ID: "bill_ackman", Name: "Bill Ackman", Description: "An activist investor, takes bold positions and pushes for change", Type: "activist", Category: "activist_investing", Icon: "📢"},
	{ID: "cathie_wood", Name: "Cathie Wood", Description: "The queen of growth investing, believes in the power of innovation and disruption", Type: "growth", Category: "growth_investing", Icon: "🚀"},
	{ID: "charlie_munger", Name: "Charlie Munger", Description: "Warren Buffett's partner, only buys wonderful businesses at fair prices", Type: "value", Category: "value_investing", Icon: "🔍"},
	{ID: "michael_burry", Name: "Michael Burry", Description: "The Big Short contrarian who hunts for deep value", Type: "contrarian", Category: "contrarian_investing", Icon: "🔄"},
	{ID: "peter_lynch", Name: "Peter Lynch", Description: `Practical investor who seeks "ten-baggers" in everyday businesses`, Type: "growth", Category: "growth_investing", Icon: "🏆"},
	{ID: "phil_fisher", Name: "Phil Fisher", Description: `Meticulous growth investor who uses deep "scuttlebutt" research`, Type: "growth", Category: "growth_investing", Icon: "📊"},
	{ID: "stanley_druckenmiller", Name: "Stanley Druckenmiller", Description: "Macro legend who hunts for asymmetric opportunities with growth potential", Type: "macro", Category: "macro_investing", Icon: "🌎"},
	{ID: "warren_buffett", Name: "Warren Buffett", Description: "The oracle of Omaha, seeks wonderful companies at a fair price", Type: "value", Category: "value_investing", Icon: "🧠"},
	{ID: "valuation", Name: "Valuation Agent", Description: "Calculates the intrinsic value of a stock and generates trading signals", Type: "quantitative", Category: "quantitative_analysis", Icon: "💹"},
	{ID: "sentiment", Name: "Sentiment Agent", Description: "Analyzes market sentiment and generates trading signals", Type: "quantitative", Category: "sentiment_analysis", Icon: "😀"},
	{ID: "fundamentals", Name: "Fundamentals Agent", Description: "Analyzes fundamental data and generates trading signals", Type: "quantitative", Category: "fundamental_analysis", Icon: "📝"},
	{ID: "technicals", Name: "Technicals Agent", Description: "Analyzes technical indicators and generates trading signals", Type: "quantitative", Category: "technical_analysis", Icon: "📈"},
	{ID: RiskManagerID, Name: "Risk Manager", Description: "Calculates risk metrics and sets position limits", Type: "risk", Category: "risk_management", Icon: "⚠️"},
	{ID: PortfolioManagerID, Name: "Portfolio Manager", Description: "Makes final trading decisions and generates orders", Type: "portfolio", Category: "portfolio_management", Icon: "📂"},
}

// KnownIDs returns every id in the descriptor table, reserved roles included
func KnownIDs() []string {
	ids := make([]string, len(descriptors))
	for i, d := range descriptors {
		ids[i] = d.ID
	}
	return ids
}

// IsReserved reports whether id is an aggregation-only role
func IsReserved(id string) bool {
	return id == RiskManagerID || id == PortfolioManagerID
}

// Registry maps agent ids to descriptors and capability factories.
// It is read-only after construction and safe for concurrent use.
type Registry struct {
	list      []Descriptor
	byID      map[string]int
	directory Directory
	log       zerolog.Logger
}

// NewRegistry creates a registry over the built-in descriptor table.
// Factories are taken from directory; ids without a factory are still listed
// but fail capability resolution.
func NewRegistry(directory Directory, log zerolog.Logger) *Registry {
	list := make([]Descriptor, len(descriptors))
	byID := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		d.Active = true
		list[i] = d
		byID[d.ID] = i
	}

	r := &Registry{
		list:      list,
		byID:      byID,
		directory: directory,
		log:       log.With().Str("component", "agent_registry").Logger(),
	}

	for id := range directory {
		if _, ok := byID[id]; !ok {
			r.log.Warn().Str("agent_id", id).Msg("Factory registered for unknown agent, ignoring")
		}
	}

	return r
}

// Lookup returns the descriptor for id
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return r.list[i], true
}

// List returns every descriptor in table order
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.list))
	copy(out, r.list)
	return out
}

// Filter returns descriptors matching agentType and category. Empty values
// match everything.
func (r *Registry) Filter(agentType, category string) []Descriptor {
	out := make([]Descriptor, 0, len(r.list))
	for _, d := range r.list {
		if agentType != "" && d.Type != agentType {
			continue
		}
		if category != "" && d.Category != category {
			continue
		}
		out = append(out, d)
	}
	return out
}

// IDs returns every agent id in table order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.list))
	for i, d := range r.list {
		ids[i] = d.ID
	}
	return ids
}

// DefaultAgentIDs returns every id except the reserved roles
func (r *Registry) DefaultAgentIDs() []string {
	ids := make([]string, 0, len(r.list))
	for _, d := range r.list {
		if !IsReserved(d.ID) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Unknown returns the ids not present in the registry, preserving order
func (r *Registry) Unknown(ids []string) []string {
	var unknown []string
	for _, id := range ids {
		if _, ok := r.byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

// ResolveCapability constructs the capability for id. Unknown ids fail with
// AGENT_NOT_FOUND; a missing or failing factory with AGENT_CONSTRUCTION_FAILED.
func (r *Registry) ResolveCapability(id string) (Capability, error) {
	if _, ok := r.byID[id]; !ok {
		return nil, domain.NewError(domain.KindAgentNotFound, id, "", nil)
	}

	factory, ok := r.directory[id]
	if !ok || factory == nil {
		return nil, domain.NewError(domain.KindAgentConstructionFailed, id, "", fmt.Errorf("no factory registered"))
	}

	capability, err := factory()
	if err != nil {
		return nil, domain.NewError(domain.KindAgentConstructionFailed, id, "", err)
	}
	if capability == nil {
		return nil, domain.NewError(domain.KindAgentConstructionFailed, id, "", fmt.Errorf("factory returned nil capability"))
	}

	return capability, nil
}
