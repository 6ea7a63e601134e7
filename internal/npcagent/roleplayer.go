// Package npcagent implements the NPC Roleplayer sub-agent: given an NPC's
// soul and body plus a narrowly sliced view of the current turn, it emits
// structured in-character dialogue. Nothing outside the NPC's own
// location_knowledge ever reaches it.
package npcagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrwong99/adventure-engine/internal/apperr"
	"github.com/mrwong99/adventure-engine/internal/llmjson"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/llm"
	"github.com/mrwong99/adventure-engine/pkg/types"
	"github.com/mrwong99/adventure-engine/pkg/vectorstore"
)

// NarrativeStyle controls how much detail the Roleplayer is asked to put
// into its response. The Coordinator decides which one applies per §4.6's
// recency rule; the Roleplayer only ever sees the resolved value.
type NarrativeStyle string

const (
	Brief    NarrativeStyle = "brief"
	Detailed NarrativeStyle = "detailed"
)

// RecentMessage is the narrow view of conversation history this NPC is
// allowed to see: only turns already addressed to or spoken by it.
type RecentMessage struct {
	Role    string
	Content string
}

// NewMemory is the optional memory the LLM may decide this turn is worth
// remembering. The Roleplayer only proposes it; the Coordinator persists it.
type NewMemory struct {
	Event    string   `json:"event"`
	Keywords []string `json:"keywords"`
}

// Input is the context the Coordinator slices for one NPC Roleplayer
// invocation. It deliberately carries no dice totals, game flags, other
// NPCs, or world-pack contents beyond this NPC's own location_knowledge.
type Input struct {
	NPCID             string
	NPC               worldpack.NPC
	PlayerInput       string
	RecentMessages    []RecentMessage
	Style             NarrativeStyle
	RoleplayDirection string // derived from dice_result by the Coordinator; never the raw result.
	LocationID        string
	WorldPackID       string
	Lang              string
}

// Output is the structured reply the Coordinator folds back into the turn.
type Output struct {
	Response       string     `json:"response"`
	Emotion        string     `json:"emotion"`
	Action         string     `json:"action"`
	RelationChange int        `json:"relation_change"`
	NewMemory      *NewMemory `json:"new_memory,omitempty"`
}

type outputWire struct {
	Response       string     `json:"response"`
	Emotion        string     `json:"emotion"`
	Action         string     `json:"action"`
	RelationChange int        `json:"relation_change"`
	NewMemory      *NewMemory `json:"new_memory"`
}

// Roleplayer is a stateless operation: all per-NPC state (body, memory
// collection) is passed in via Input and read fresh from the vector store
// on every call.
type Roleplayer struct {
	provider llm.Provider
	store    vectorstore.Store
	embed    vectorstore.EmbedFunc
	log      *slog.Logger
}

// New returns a Roleplayer. store may be nil, in which case memory retrieval
// always falls back to the NPC's raw seed memory.
func New(provider llm.Provider, store vectorstore.Store, embed vectorstore.EmbedFunc, log *slog.Logger) *Roleplayer {
	if log == nil {
		log = slog.Default()
	}
	return &Roleplayer{provider: provider, store: store, embed: embed, log: log}
}

const relationChangeClampMin, relationChangeClampMax = -10, 10

// Roleplay produces one turn of in-character dialogue for in.NPC.
func (r *Roleplayer) Roleplay(ctx context.Context, in Input) (Output, error) {
	memories := RetrieveMemories(ctx, r.store, r.embed, in.NPC, in.PlayerInput, 3, r.log)

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: roleplaySystemPrompt,
		Messages:     buildMessages(in, memories),
		Temperature:  0.8,
	})
	if err != nil {
		return Output{}, fmt.Errorf("npcagent: roleplay %s: %w", in.NPCID, err)
	}

	var wire outputWire
	if err := llmjson.Decode(resp.Content, &wire); err != nil {
		return Output{}, fmt.Errorf("npcagent: roleplay %s: %w", in.NPCID, errors.Join(err, apperr.ErrParseFailure))
	}

	out := Output{
		Response:       wire.Response,
		Emotion:        wire.Emotion,
		Action:         wire.Action,
		RelationChange: clamp(wire.RelationChange, relationChangeClampMin, relationChangeClampMax),
		NewMemory:      wire.NewMemory,
	}
	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func buildMessages(in Input, memories []string) []types.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n", in.NPC.Soul.Name, in.NPC.Soul.Description.Resolve(in.Lang))
	if len(in.NPC.Soul.Personality) > 0 {
		fmt.Fprintf(&b, "Personality: %s\n", strings.Join(in.NPC.Soul.Personality, ", "))
	}
	fmt.Fprintf(&b, "Speech style: %s\n", in.NPC.Soul.SpeechStyle.Resolve(in.Lang))
	for _, ex := range in.NPC.Soul.ExampleDialogue {
		fmt.Fprintf(&b, "Player: %s\n%s: %s\n", ex.Player, in.NPC.Soul.Name, ex.NPC)
	}
	if len(memories) > 0 {
		fmt.Fprintf(&b, "Relevant memories:\n- %s\n", strings.Join(memories, "\n- "))
	}
	fmt.Fprintf(&b, "Narrative style: %s\n", in.Style)
	if in.RoleplayDirection != "" {
		fmt.Fprintf(&b, "Direction: %s\n", in.RoleplayDirection)
	}

	msgs := make([]types.Message, 0, len(in.RecentMessages)+1)
	for _, m := range in.RecentMessages {
		msgs = append(msgs, types.Message{Role: m.Role, Content: m.Content})
	}
	b.WriteString("Player says: ")
	b.WriteString(in.PlayerInput)
	msgs = append(msgs, types.Message{Role: "user", Content: b.String()})
	return msgs
}

const roleplaySystemPrompt = `You roleplay a single NPC in a text adventure, in character, using only ` +
	`the soul, memories, and direction given to you. Respond with a single JSON object: ` +
	`{"response": string, "emotion": string, "action": string, "relation_change": int (-10..10), ` +
	`"new_memory": {"event": string, "keywords": [string]} | null}.`
