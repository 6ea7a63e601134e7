package session

import (
	"sync"
	"time"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
)

// Phase is the authoritative game-phase of a session, mirrored to the
// client via the outbound "phase" message.
type Phase string

const (
	PhaseWaitingInput Phase = "waiting_input"
	PhaseGM           Phase = "gm"
	PhaseDiceCheck    Phase = "dice_check"
)

// PendingResume snapshots the ReAct Loop's state across a dice-check
// suspension, per §4.6 step (f)/5.
type PendingResume struct {
	PlayerInput  string
	Iteration    int
	AgentResults []AgentResult
}

// AgentResult is one sub-agent invocation's outcome, appended to the Loop's
// working list across iterations of a single turn.
type AgentResult struct {
	Agent   string `json:"agent"`
	Content string `json:"content"`
	Success bool   `json:"success"`
}

// LastCheckResult mirrors the outcome of the most recently resolved dice
// check, surfaced to the client in the "complete" message's metadata.
// Defined locally (rather than importing internal/dice's Result) for the
// same reason as DiceResultMsg: session must not depend on coordinator or
// its sub-agent packages.
type LastCheckResult struct {
	Outcome string `json:"outcome"`
	Total   int    `json:"total"`
}

// GameState is the full mutable state of one session. Every mutation
// updates UpdatedAt; Messages is append-only. GameState is never shared
// across sessions and is always accessed through its own mutex — the Loop
// driving it is single-threaded cooperative, but transport and consolidation
// goroutines may read concurrently.
type GameState struct {
	mu sync.Mutex

	SessionID       string
	WorldPackID     string
	Lang            string
	CurrentLocation string
	ActiveNPCIDs    []string
	Flags           map[string]bool
	DiscoveredItems map[string]bool
	Turn            int
	Phase           Phase
	PendingResume   *PendingResume
	Messages        []Message

	// Player is the session's own mutable copy of the world pack's player
	// sheet (§3's "player character" component) — fate points and tags are
	// spent/gained over the life of a session and never write back to the
	// world pack template.
	Player worldpack.PlayerCharacter

	// NPCRelations tracks each NPC's relation score toward the player,
	// accumulated from the NPC Roleplayer's relation_change across turns.
	// Keyed by npc id; absent until the first roleplay turn with that NPC.
	NPCRelations map[string]int

	// LastCheckResult is the outcome of the most recently resolved dice
	// check, nil until the first one resolves.
	LastCheckResult *LastCheckResult

	UpdatedAt time.Time
}

// New returns a freshly initialized GameState for a session starting at
// startLocation in worldPackID, with its own copy of the world pack's
// player sheet.
func New(sessionID, worldPackID, startLocation, lang string, player worldpack.PlayerCharacter) *GameState {
	return &GameState{
		SessionID:       sessionID,
		WorldPackID:     worldPackID,
		Lang:            lang,
		CurrentLocation: startLocation,
		Flags:           make(map[string]bool),
		DiscoveredItems: make(map[string]bool),
		Phase:           PhaseWaitingInput,
		Player:          player,
		NPCRelations:    make(map[string]int),
		UpdatedAt:       time.Now(),
	}
}

func (g *GameState) touch() {
	g.UpdatedAt = time.Now()
}

// AddMessage appends a message to the session's history. Never deletes or
// rewrites prior entries.
func (g *GameState) AddMessage(role, npcID, content string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Messages = append(g.Messages, Message{Role: role, NPCID: npcID, Content: content, Timestamp: time.Now()})
	g.touch()
}

// RecentMessages returns the last k messages, lightly formatted: content
// truncated to 200 characters, matching the Loop prompt-building rule.
func (g *GameState) RecentMessages(k int) []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	if k > len(g.Messages) {
		k = len(g.Messages)
	}
	out := make([]Message, k)
	for i, m := range g.Messages[len(g.Messages)-k:] {
		m.Content = truncated(m.Content, 200)
		out[i] = m
	}
	return out
}

// RecentMessagesForNPC returns the last k messages restricted to turns
// addressed to or spoken by npcID — the slice the NPC Roleplayer is allowed
// to see.
func (g *GameState) RecentMessagesForNPC(npcID string, k int) []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var filtered []Message
	for _, m := range g.Messages {
		if m.NPCID == npcID {
			filtered = append(filtered, m)
		}
	}
	if k > len(filtered) {
		k = len(filtered)
	}
	return filtered[len(filtered)-k:]
}

// UpdateLocation moves the session to locationID and, if npcIDs is non-nil,
// replaces the active NPC list (the Coordinator refreshes it with the NPCs
// whose world-pack body has the new location as its current location).
func (g *GameState) UpdateLocation(locationID string, npcIDs []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CurrentLocation = locationID
	if npcIDs != nil {
		g.ActiveNPCIDs = npcIDs
	}
	g.touch()
}

// AddFlag sets a game flag.
func (g *GameState) AddFlag(flag string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Flags[flag] = true
	g.touch()
}

// HasFlag reports whether flag has been set.
func (g *GameState) HasFlag(flag string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Flags[flag]
}

// AddDiscoveredItem records id as revealed to the player.
func (g *GameState) AddDiscoveredItem(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.DiscoveredItems[id] = true
	g.touch()
}

// HasDiscoveredItem reports whether id has already been discovered.
func (g *GameState) HasDiscoveredItem(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.DiscoveredItems[id]
}

// DiscoveredItemIDs returns a snapshot of all discovered item ids, used to
// slice the Lore Retriever's context.
func (g *GameState) DiscoveredItemIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.DiscoveredItems))
	for id := range g.DiscoveredItems {
		ids = append(ids, id)
	}
	return ids
}

// IncrementTurn advances the turn counter and returns the new value.
func (g *GameState) IncrementTurn() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Turn++
	g.touch()
	return g.Turn
}

// SetPhase transitions the session's authoritative phase.
func (g *GameState) SetPhase(phase Phase) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Phase = phase
	g.touch()
}

// CurrentPhase returns the session's current phase.
func (g *GameState) CurrentPhase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Phase
}

// SaveReactState snapshots the Loop's in-flight state ahead of a dice-check
// suspension.
func (g *GameState) SaveReactState(playerInput string, iteration int, agentResults []AgentResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	results := make([]AgentResult, len(agentResults))
	copy(results, agentResults)
	g.PendingResume = &PendingResume{PlayerInput: playerInput, Iteration: iteration, AgentResults: results}
	g.Phase = PhaseDiceCheck
	g.touch()
}

// ClearReactState discards any pending resume snapshot.
func (g *GameState) ClearReactState() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.PendingResume = nil
	g.touch()
}

// TakeReactState returns the pending resume snapshot (nil if none exists)
// without clearing it — callers restore the Loop then call ClearReactState
// once the turn actually resumes.
func (g *GameState) TakeReactState() *PendingResume {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.PendingResume
}

// Location and ActiveNPCs return the session's current scene without
// requiring callers to reach into the struct under lock.
func (g *GameState) Location() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.CurrentLocation
}

func (g *GameState) ActiveNPCs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.ActiveNPCIDs))
	copy(out, g.ActiveNPCIDs)
	return out
}

// PlayerSheet returns a snapshot of the player's current sheet — name,
// concept, traits, fate points, and tags — the ground truth the Rule
// Adjudicator's character context is sliced from.
func (g *GameState) PlayerSheet() worldpack.PlayerCharacter {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.Player
	p.Tags = append([]string(nil), g.Player.Tags...)
	p.Traits = append([]worldpack.Trait(nil), g.Player.Traits...)
	return p
}

// PlayerTags returns a snapshot of the player's current tags, the ground
// truth the Rule Adjudicator's tags context is sliced from.
func (g *GameState) PlayerTags() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.Player.Tags))
	copy(out, g.Player.Tags)
	return out
}

// AddTag attaches tag to the player sheet if not already present.
func (g *GameState) AddTag(tag string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.Player.Tags {
		if t == tag {
			return
		}
	}
	g.Player.Tags = append(g.Player.Tags, tag)
	g.touch()
}

// RemoveTag detaches tag from the player sheet if present.
func (g *GameState) RemoveTag(tag string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, t := range g.Player.Tags {
		if t == tag {
			g.Player.Tags = append(g.Player.Tags[:i], g.Player.Tags[i+1:]...)
			break
		}
	}
	g.touch()
}

// SpendFatePoint decrements the player's fate points and reports whether
// there was a point to spend. Never goes negative.
func (g *GameState) SpendFatePoint() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Player.FatePoints <= 0 {
		return false
	}
	g.Player.FatePoints--
	g.touch()
	return true
}

// RestoreFatePoint increments the player's fate points.
func (g *GameState) RestoreFatePoint() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Player.FatePoints++
	g.touch()
}

// FatePoints returns the player's current fate point count.
func (g *GameState) FatePoints() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Player.FatePoints
}

// AdjustNPCRelation applies delta to npcID's relation score and returns the
// new total.
func (g *GameState) AdjustNPCRelation(npcID string, delta int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.NPCRelations[npcID] += delta
	g.touch()
	return g.NPCRelations[npcID]
}

// NPCRelation returns npcID's current relation score (zero if never set).
func (g *GameState) NPCRelation(npcID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.NPCRelations[npcID]
}

// SetLastCheckResult records the outcome of the most recently resolved dice
// check.
func (g *GameState) SetLastCheckResult(outcome string, total int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.LastCheckResult = &LastCheckResult{Outcome: outcome, Total: total}
	g.touch()
}

// LastCheck returns the most recently recorded check result, nil if none
// has resolved yet this session.
func (g *GameState) LastCheck() *LastCheckResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.LastCheckResult
}
