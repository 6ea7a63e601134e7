package coordinator

import (
	"context"
	"strings"
	"sync"

	"github.com/mrwong99/adventure-engine/internal/dice"
	"github.com/mrwong99/adventure-engine/internal/lore"
	"github.com/mrwong99/adventure-engine/internal/npcagent"
	"github.com/mrwong99/adventure-engine/internal/rule"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
)

// ruleAgent wraps the Rule Adjudicator behind the Agent interface. It reads
// the shape RuleContext produces: action/character/tags/lang — there is no
// separate "argument" key in that slice, so the player's persuasive
// argument (if any) is conveyed by passing the same action text as both the
// action and argument parameters to Adjudicate.
type ruleAgent struct {
	adjudicator *rule.Adjudicator
}

func newRuleAgent(adjudicator *rule.Adjudicator) *ruleAgent {
	return &ruleAgent{adjudicator: adjudicator}
}

func (r *ruleAgent) Name() string { return "rule" }

func (r *ruleAgent) Invoke(ctx context.Context, sliceCtx map[string]any) (AgentResponse, error) {
	action, _ := sliceCtx[keyAction].(string)
	lang, _ := sliceCtx[keyLang].(string)
	view, _ := sliceCtx[keyCharacter].(CharacterView)
	tags, _ := sliceCtx[keyTags].([]string)

	character := worldpack.PlayerCharacter{Name: view.Name, Traits: view.Traits}
	verdict, err := r.adjudicator.Adjudicate(ctx, action, character, tags, action, lang)
	if err != nil {
		return AgentResponse{Success: false, Error: err}, err
	}
	return AgentResponse{
		Content: verdict.Reasoning,
		Metadata: map[string]any{
			"needs_check":   verdict.NeedsCheck,
			"check_request": verdict.CheckRequest,
		},
		Success: true,
	}, nil
}

// loreAgent wraps the Lore Retriever behind the Agent interface.
type loreAgent struct {
	retriever *lore.Retriever
}

func newLoreAgent(retriever *lore.Retriever) *loreAgent {
	return &loreAgent{retriever: retriever}
}

func (l *loreAgent) Name() string { return "lore" }

func (l *loreAgent) Invoke(ctx context.Context, sliceCtx map[string]any) (AgentResponse, error) {
	query, _ := sliceCtx[keyQuery].(string)
	currentLocation, _ := sliceCtx[keyCurrentLocation].(string)
	currentRegion, _ := sliceCtx[keyCurrentRegion].(string)
	lang, _ := sliceCtx[keyLang].(string)

	text := l.retriever.Search(ctx, query, currentLocation, currentRegion, lang)
	return AgentResponse{Content: text, Success: true}, nil
}

// npcAgentWrapper wraps an NPC Roleplayer invocation for one fixed NPC id
// behind the Agent interface.
type npcAgentWrapper struct {
	npcID      string
	npc        worldpack.NPC
	roleplayer *npcagent.Roleplayer
}

func (n *npcAgentWrapper) Name() string { return "npc_" + n.npcID }

func (n *npcAgentWrapper) Invoke(ctx context.Context, sliceCtx map[string]any) (AgentResponse, error) {
	playerInput, _ := sliceCtx[keyPlayerInput].(string)
	lang, _ := sliceCtx[keyLang].(string)
	location, _ := sliceCtx[keyCurrentLocation].(string)
	worldPackID, _ := sliceCtx[keyWorldPackID].(string)
	direction, _ := sliceCtx[keyRoleplayDir].(string)
	style, _ := sliceCtx[keyStyle].(string)
	recent, _ := sliceCtx[keyRecentMessages].([]npcagent.RecentMessage)

	out, err := n.roleplayer.Roleplay(ctx, npcagent.Input{
		NPCID:             n.npcID,
		NPC:               n.npc,
		PlayerInput:       playerInput,
		RecentMessages:    recent,
		Style:             npcagent.NarrativeStyle(style),
		RoleplayDirection: direction,
		LocationID:        location,
		WorldPackID:       worldPackID,
		Lang:              lang,
	})
	if err != nil {
		return AgentResponse{Success: false, Error: err}, err
	}
	return AgentResponse{
		Content: out.Response,
		Metadata: map[string]any{
			"emotion":         out.Emotion,
			"action":          out.Action,
			"relation_change": out.RelationChange,
			"new_memory":      out.NewMemory,
		},
		Success: true,
	}, nil
}

// npcFactory resolves npc_<id> agent names against pack's NPC catalog,
// caching one wrapper per NPC id so repeated lookups share state.
type npcFactory struct {
	pack       *worldpack.Pack
	roleplayer *npcagent.Roleplayer

	mu    sync.Mutex
	cache map[string]*npcAgentWrapper
}

func newNPCFactory(pack *worldpack.Pack, roleplayer *npcagent.Roleplayer) *npcFactory {
	return &npcFactory{pack: pack, roleplayer: roleplayer, cache: make(map[string]*npcAgentWrapper)}
}

const npcAgentPrefix = "npc_"

func (f *npcFactory) build(name string) (Agent, bool) {
	if !strings.HasPrefix(name, npcAgentPrefix) {
		return nil, false
	}
	id := strings.TrimPrefix(name, npcAgentPrefix)

	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.cache[id]; ok {
		return a, true
	}

	npc, ok := f.pack.NPCs.Get(id)
	if !ok {
		return nil, false
	}
	a := &npcAgentWrapper{npcID: id, npc: npc, roleplayer: f.roleplayer}
	f.cache[id] = a
	return a, true
}

// Factory returns a Factory suitable for Registry.RegisterFactory.
func (f *npcFactory) Factory() Factory { return f.build }

var _ Agent = (*ruleAgent)(nil)
var _ Agent = (*loreAgent)(nil)
var _ Agent = (*npcAgentWrapper)(nil)

// CheckRequestFromMetadata extracts a *dice.CheckRequest from a rule agent
// response's metadata, used by the Loop to decide whether to suspend for a
// dice check.
func CheckRequestFromMetadata(resp AgentResponse) (*dice.CheckRequest, bool) {
	needsCheck, _ := resp.Metadata["needs_check"].(bool)
	if !needsCheck {
		return nil, false
	}
	req, ok := resp.Metadata["check_request"].(*dice.CheckRequest)
	if !ok || req == nil {
		return nil, false
	}
	return req, true
}
