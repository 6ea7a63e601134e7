// Package coordinator implements the ReAct Loop: the central controller
// that iterates LLM calls and sub-agent dispatches to turn one player
// utterance into one narrative reply, suspending around dice checks.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrwong99/adventure-engine/internal/apperr"
)

// AgentResponse is what every sub-agent invocation returns to the Loop,
// folded into GameState.PendingResume.AgentResults across iterations.
type AgentResponse struct {
	Content  string
	Metadata map[string]any
	Success  bool
	Error    error
}

// Agent is the polymorphic sub-agent capability the Loop dispatches to. The
// Coordinator never calls a concrete type directly — every Rule Adjudicator,
// Lore Retriever, and NPC Roleplayer invocation goes through this interface
// so the dispatch table stays uniform regardless of how many NPCs exist.
type Agent interface {
	Name() string
	Invoke(ctx context.Context, sliceCtx map[string]any) (AgentResponse, error)
}

// Factory constructs an Agent for a dynamically named target, used to
// register NPC roleplayers under npc_<id> without pre-enumerating every
// NPC in the world pack.
type Factory func(name string) (Agent, bool)

// Registry is the Coordinator's string-keyed dispatch table. Static agents
// (rule, lore) are registered once; npc_<id> names fall through to a single
// factory that injects the NPC id into the constructed agent, per §9.
type Registry struct {
	mu      sync.RWMutex
	static  map[string]Agent
	factory Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{static: make(map[string]Agent)}
}

// Register adds a statically-named agent (e.g. "rule", "lore").
func (r *Registry) Register(a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.static[a.Name()] = a
}

// RegisterFactory installs the fallback factory used for dynamically named
// agents (npc_<id>) not found in the static table.
func (r *Registry) RegisterFactory(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factory = f
}

// Lookup resolves name to an Agent, consulting the static table first and
// falling back to the factory. Returns ErrAgentNotFound-shaped ok=false if
// neither produces one.
func (r *Registry) Lookup(name string) (Agent, bool) {
	r.mu.RLock()
	a, ok := r.static[name]
	factory := r.factory
	r.mu.RUnlock()
	if ok {
		return a, true
	}
	if factory == nil {
		return nil, false
	}
	return factory(name)
}

// invokeNamed resolves and invokes agentName with sliceCtx, wrapping the
// not-found case into a consistent error the Loop can recover from.
func (r *Registry) invokeNamed(ctx context.Context, agentName string, sliceCtx map[string]any) (AgentResponse, error) {
	agent, ok := r.Lookup(agentName)
	if !ok {
		return AgentResponse{}, fmt.Errorf("coordinator: agent %q: %w", agentName, apperr.ErrAgentNotFound)
	}
	return agent.Invoke(ctx, sliceCtx)
}
