package agents

import (
	"sync"

	"meridian/internal/domain/insight"
)

// Registry stores agents by their type for quick lookup. Dispatch always
// goes through the closed insight.AgentType set, never free-form strings.
type Registry struct {
	agents map[insight.AgentType]Agent
	mu     sync.RWMutex
}

// NewRegistry constructs an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[insight.AgentType]Agent)}
}

// Register adds or replaces an agent entry.
func (r *Registry) Register(ag Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[ag.Type()] = ag
}

// Get retrieves an agent by type.
func (r *Registry) Get(agentType insight.AgentType) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ag, ok := r.agents[agentType]
	return ag, ok
}

// List returns registered agent types.
func (r *Registry) List() []insight.AgentType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]insight.AgentType, 0, len(r.agents))
	for t := range r.agents {
		res = append(res, t)
	}

	return res
}
