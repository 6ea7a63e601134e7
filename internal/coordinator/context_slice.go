package coordinator

import (
	"github.com/mrwong99/adventure-engine/internal/npcagent"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
)

// Context slice key names. Every sub-agent's sliceCtx is built from exactly
// one of these sets — never a superset — so the forbidden-key checks in
// the universal invariant tests have something concrete to assert against.
const (
	keyAction          = "action"
	keyCharacter       = "character"
	keyTags            = "tags"
	keyLang            = "lang"
	keyQuery           = "query"
	keyCurrentLocation = "current_location"
	keyCurrentRegion   = "current_region"
	keyDiscoveredItems = "discovered_items"
	keyWorldPackID     = "world_pack_id"
	keyNPCID           = "npc_id"
	keyNPC             = "npc"
	keyPlayerInput     = "player_input"
	keyRecentMessages  = "recent_messages"
	keyStyle           = "narrative_style"
	keyRoleplayDir     = "roleplay_direction"
)

// CharacterView is the Rule Adjudicator's narrow view of the player
// character: name, concept, and traits only — no fate points. Current tags
// arrive separately as the context's own "tags" key, sourced from the
// session's GameState rather than the sheet passed in here.
type CharacterView struct {
	Name    string
	Concept string
	Traits  []worldpack.Trait
}

// RuleContext builds the Rule Adjudicator's sliced context: action, the
// character's name/concept/traits, current tags, and language. Must never
// carry other NPCs, flags, message history, or location contents.
func RuleContext(action string, character worldpack.PlayerCharacter, tags []string, lang string) map[string]any {
	return map[string]any{
		keyAction: action,
		keyCharacter: CharacterView{
			Name:    character.Name,
			Concept: character.Concept.Resolve(lang),
			Traits:  character.Traits,
		},
		keyTags: tags,
		keyLang: lang,
	}
}

// LoreContext builds the Lore Retriever's sliced context. Must never carry
// character data.
func LoreContext(query, currentLocation, currentRegion string, discoveredItems []string, worldPackID, lang string) map[string]any {
	return map[string]any{
		keyQuery:           query,
		keyCurrentLocation: currentLocation,
		keyCurrentRegion:   currentRegion,
		keyDiscoveredItems: discoveredItems,
		keyWorldPackID:     worldPackID,
		keyLang:            lang,
	}
}

// NPCContext builds an npc_<id> sliced context per §4.5. roleplayDirection
// is included instead of raw dice data whenever a dice_result is present;
// callers must never pass both a roleplay_direction and a dice result key.
func NPCContext(npcID string, npc worldpack.NPC, playerInput string, recent []npcagent.RecentMessage, style npcagent.NarrativeStyle, roleplayDirection, location, worldPackID, lang string) map[string]any {
	ctx := map[string]any{
		keyNPCID:           npcID,
		keyNPC:             npc,
		keyPlayerInput:     playerInput,
		keyRecentMessages:  recent,
		keyStyle:           string(style),
		keyCurrentLocation: location,
		keyWorldPackID:     worldPackID,
		keyLang:            lang,
	}
	if roleplayDirection != "" {
		ctx[keyRoleplayDir] = roleplayDirection
	}
	return ctx
}

// HasAnyKey reports whether ctx carries any of the given keys — the
// assertion the context-isolation property test (§8 invariant 5) uses to
// verify a Rule context never contains "messages" or "current_location",
// etc.
func HasAnyKey(ctx map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := ctx[k]; ok {
			return true
		}
	}
	return false
}
