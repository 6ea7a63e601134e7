package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
)

// Store persists an opaque encoding of a GameState snapshot, sufficient to
// reconstruct a session after a process restart. The core never depends on
// a specific backend; Redis (store_redis.go) and an in-memory store (below)
// both satisfy this.
type Store interface {
	SaveState(ctx context.Context, sessionID string, snapshot []byte) error
	LoadState(ctx context.Context, sessionID string) ([]byte, bool, error)
}

// snapshot is the wire shape persisted for a GameState. It intentionally
// mirrors GameState's exported fields rather than embedding the struct
// directly, since GameState carries an unexported mutex.
type snapshot struct {
	SessionID       string                     `json:"session_id"`
	WorldPackID     string                     `json:"world_pack_id"`
	Lang            string                     `json:"lang"`
	CurrentLocation string                     `json:"current_location"`
	ActiveNPCIDs    []string                   `json:"active_npc_ids"`
	Flags           map[string]bool            `json:"flags"`
	DiscoveredItems map[string]bool            `json:"discovered_items"`
	Turn            int                        `json:"turn"`
	Phase           Phase                      `json:"phase"`
	PendingResume   *PendingResume             `json:"pending_resume,omitempty"`
	Messages        []Message                  `json:"messages"`
	Player          worldpack.PlayerCharacter  `json:"player"`
	NPCRelations    map[string]int             `json:"npc_relations"`
	LastCheckResult *LastCheckResult           `json:"last_check_result,omitempty"`
}

// Marshal encodes g into the opaque snapshot format a Store persists.
func Marshal(g *GameState) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := snapshot{
		SessionID:       g.SessionID,
		WorldPackID:     g.WorldPackID,
		Lang:            g.Lang,
		CurrentLocation: g.CurrentLocation,
		ActiveNPCIDs:    g.ActiveNPCIDs,
		Flags:           g.Flags,
		DiscoveredItems: g.DiscoveredItems,
		Turn:            g.Turn,
		Phase:           g.Phase,
		PendingResume:   g.PendingResume,
		Messages:        g.Messages,
		Player:          g.Player,
		NPCRelations:    g.NPCRelations,
		LastCheckResult: g.LastCheckResult,
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("session: marshal snapshot: %w", err)
	}
	return b, nil
}

// Unmarshal reconstructs a GameState from a Store snapshot.
func Unmarshal(data []byte) (*GameState, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: unmarshal snapshot: %w", err)
	}
	g := &GameState{
		SessionID:       s.SessionID,
		WorldPackID:     s.WorldPackID,
		Lang:            s.Lang,
		CurrentLocation: s.CurrentLocation,
		ActiveNPCIDs:    s.ActiveNPCIDs,
		Flags:           s.Flags,
		DiscoveredItems: s.DiscoveredItems,
		Turn:            s.Turn,
		Phase:           s.Phase,
		PendingResume:   s.PendingResume,
		Messages:        s.Messages,
		Player:          s.Player,
		NPCRelations:    s.NPCRelations,
		LastCheckResult: s.LastCheckResult,
	}
	if g.Flags == nil {
		g.Flags = make(map[string]bool)
	}
	if g.DiscoveredItems == nil {
		g.DiscoveredItems = make(map[string]bool)
	}
	if g.NPCRelations == nil {
		g.NPCRelations = make(map[string]int)
	}
	return g, nil
}

// MemStore is an in-process Store, used by tests and single-process
// deployments that don't need cross-restart durability.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore returns an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) SaveState(_ context.Context, sessionID string, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(snapshot))
	copy(cp, snapshot)
	m.data[sessionID] = cp
	return nil
}

func (m *MemStore) LoadState(_ context.Context, sessionID string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[sessionID]
	return b, ok, nil
}
