// Package worldpack loads and indexes the static content a session is
// seeded from: regions, locations, lore entries, NPC souls and bodies, and
// the player character sheet. Everything here is read-only once loaded; the
// player sheet is copied into session.GameState at session creation and
// mutated there instead. NPC bodies are not copied: GameState tracks only
// per-NPC relation scores.
package worldpack

import "github.com/mrwong99/adventure-engine/pkg/i18n"

// Trait is one facet of a player character's concept, in the vein of the
// Fate aspect: a name plus the two ways it can be invoked against a roll.
type Trait struct {
	Name           string   `json:"name" yaml:"name"`
	Description    i18n.Pair `json:"description" yaml:"description"`
	PositiveAspect i18n.Pair `json:"positive_aspect" yaml:"positive_aspect"`
	NegativeAspect i18n.Pair `json:"negative_aspect" yaml:"negative_aspect"`
}

// PlayerCharacter is the player's sheet as loaded from the world pack. Fate
// points and tags are mutated over the life of a session; the copy held by
// GameState is the authoritative one once a session starts.
type PlayerCharacter struct {
	Name       string    `json:"name" yaml:"name"`
	Concept    i18n.Pair `json:"concept" yaml:"concept"`
	Traits     []Trait   `json:"traits" yaml:"traits"`
	FatePoints int       `json:"fate_points" yaml:"fate_points"`
	Tags       []string  `json:"tags" yaml:"tags"`
}

// LoreEntry is a single piece of retrievable background content. Order is
// the tie-break floor for hybrid scoring and defaults to 100 when the world
// pack omits it.
type LoreEntry struct {
	UID                 int       `json:"uid" yaml:"uid"`
	PrimaryKeys         []string  `json:"primary_keys" yaml:"primary_keys"`
	SecondaryKeys       []string  `json:"secondary_keys" yaml:"secondary_keys"`
	Content             i18n.Pair `json:"content" yaml:"content"`
	Constant            bool      `json:"constant" yaml:"constant"`
	Selective           bool      `json:"selective" yaml:"selective"`
	Order               int       `json:"order" yaml:"order"`
	Visibility          string    `json:"visibility" yaml:"visibility"` // "basic" or "detailed"
	ApplicableRegions   []string  `json:"applicable_regions" yaml:"applicable_regions"`
	ApplicableLocations []string  `json:"applicable_locations" yaml:"applicable_locations"`
}

// Region groups locations under a shared atmosphere and narrative tone.
type Region struct {
	ID                string    `json:"id" yaml:"id"`
	Name              i18n.Pair `json:"name" yaml:"name"`
	Description       i18n.Pair `json:"description" yaml:"description"`
	NarrativeTone     i18n.Pair `json:"narrative_tone" yaml:"narrative_tone"`
	AtmosphereKeywords []string `json:"atmosphere_keywords" yaml:"atmosphere_keywords"`
	LocationIDs       []string  `json:"location_ids" yaml:"location_ids"`
	Tags              []string  `json:"tags" yaml:"tags"`
}

// Location is a single place the player character can occupy. Cross
// references to regions, NPCs, and other locations are stored as ids, never
// embedded objects, so the world pack stays acyclic on disk.
type Location struct {
	ID                 string    `json:"id" yaml:"id"`
	Name               i18n.Pair `json:"name" yaml:"name"`
	Description        i18n.Pair `json:"description" yaml:"description"`
	Atmosphere         i18n.Pair `json:"atmosphere" yaml:"atmosphere"`
	RegionID           string    `json:"region_id" yaml:"region_id"`
	ConnectedLocations []string  `json:"connected_locations" yaml:"connected_locations"`
	PresentNPCIDs      []string  `json:"present_npc_ids" yaml:"present_npc_ids"`
	VisibleItems       []string  `json:"visible_items" yaml:"visible_items"`
	HiddenItems        []string  `json:"hidden_items" yaml:"hidden_items"`
	LoreTags           []string  `json:"lore_tags" yaml:"lore_tags"`

	// LegacyItems is the pre-migration "items" field. VisibleItems falls
	// back to it when empty so older world packs keep working unchanged.
	LegacyItems []string `json:"items,omitempty" yaml:"items,omitempty"`
}

// DialogueExample is one few-shot turn used to steer an NPC's voice.
type DialogueExample struct {
	Player string `json:"player" yaml:"player"`
	NPC    string `json:"npc" yaml:"npc"`
}

// Soul is the immutable half of an NPC: the parts that define who they are
// rather than what they currently know or hold.
type Soul struct {
	Name            string            `json:"name" yaml:"name"`
	Description     i18n.Pair         `json:"description" yaml:"description"`
	Personality     []string          `json:"personality" yaml:"personality"`
	SpeechStyle     i18n.Pair         `json:"speech_style" yaml:"speech_style"`
	ExampleDialogue []DialogueExample `json:"example_dialogue" yaml:"example_dialogue"`
}

// Body is the mutable half of an NPC: where they are, what they carry, how
// they feel about the player, and what they remember. The copy here is the
// world pack's seed and is not changed during play; GameState keeps a
// session's relation scores but no working copy of the rest of the body.
type Body struct {
	CurrentLocation   string              `json:"current_location" yaml:"current_location"`
	Inventory         []string            `json:"inventory" yaml:"inventory"`
	Relations         map[string]int      `json:"relations" yaml:"relations"`
	Tags              []string            `json:"tags" yaml:"tags"`
	Memory            map[string][]string `json:"memory" yaml:"memory"`
	LocationKnowledge map[string][]int    `json:"location_knowledge" yaml:"location_knowledge"`
}

// NPC pairs a Soul with its seed Body under a stable id.
type NPC struct {
	ID   string `json:"id" yaml:"id"`
	Soul Soul   `json:"soul" yaml:"soul"`
	Body Body   `json:"body" yaml:"body"`
}
