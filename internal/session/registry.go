package session

import (
	"context"
	"fmt"
	"sync"
)

// Driver runs one turn of the ReAct Loop for a bound GameState. Implemented
// by internal/coordinator.Loop; defined here so the Session Channel can
// depend on session without importing coordinator (which depends on
// session), avoiding an import cycle.
type Driver interface {
	HandlePlayerInput(ctx context.Context, content, lang string) error
	HandleDiceResult(ctx context.Context, result DiceResultMsg) error
}

// DiceResultMsg is the inbound dice_result payload (§4.7).
type DiceResultMsg struct {
	Total     int
	AllRolls  []int
	KeptRolls []int
	Outcome   string
}

// Binding pairs a session's GameState with the Driver that owns it.
type Binding struct {
	State  *GameState
	Driver Driver
}

// Registry maps session_id to its Binding. The client opens a session
// carrying a session_id; the server binds it to a Coordinator for that
// session; reconnecting with the same session_id rebinds rather than
// creating a new one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Binding
}

// NewRegistry returns an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Binding)}
}

// Bind registers (or replaces) the binding for sessionID.
func (r *Registry) Bind(sessionID string, b *Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = b
}

// Lookup returns the binding for sessionID, or false if no session with
// that id has been bound yet.
func (r *Registry) Lookup(sessionID string) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.sessions[sessionID]
	return b, ok
}

// Unbind removes a session, e.g. once its transport connection closes for
// good (not on a transient disconnect — those rebind on reconnect instead).
func (r *Registry) Unbind(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// MustLookup is a convenience for call sites that have already validated
// the session exists (e.g. just after Bind).
func (r *Registry) MustLookup(sessionID string) (*Binding, error) {
	b, ok := r.Lookup(sessionID)
	if !ok {
		return nil, fmt.Errorf("session: no binding for session %q", sessionID)
	}
	return b, nil
}
