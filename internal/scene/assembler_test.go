package scene

import (
	"context"
	"strconv"
	"testing"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
)

func buildTestPack(t *testing.T) *worldpack.Pack {
	t.Helper()
	regions, err := worldpack.NewCatalog([]worldpack.Region{
		{ID: "harbor_district", Name: i18n.Pair{EN: "Harbor District"}, NarrativeTone: i18n.Pair{EN: "windswept and weary"}, AtmosphereKeywords: []string{"salt", "gulls"}},
	}, func(r worldpack.Region) string { return r.ID })
	if err != nil {
		t.Fatal(err)
	}
	locations, err := worldpack.NewCatalog([]worldpack.Location{
		{ID: "dock", Name: i18n.Pair{EN: "The Dock"}, Description: i18n.Pair{EN: "Weathered planks."}, Atmosphere: i18n.Pair{EN: "creaking wood"}, RegionID: "harbor_district", HiddenItems: []string{"rusty_key", "old_rope"}},
		{ID: "lighthouse", Name: i18n.Pair{EN: "Lighthouse"}, Description: i18n.Pair{EN: "A tall tower."}},
	}, func(l worldpack.Location) string { return l.ID })
	if err != nil {
		t.Fatal(err)
	}
	lore, err := worldpack.NewCatalog([]worldpack.LoreEntry{
		{UID: 1, Constant: true, Content: i18n.Pair{EN: "The sea remembers everything."}, Order: 1},
		{UID: 2, ApplicableLocations: []string{"dock"}, Content: i18n.Pair{EN: "The dock creaked last night."}, Order: 2},
		{UID: 3, ApplicableRegions: []string{"harbor_district"}, Content: i18n.Pair{EN: "Gulls circle the district."}, Order: 3},
		{UID: 4, Content: i18n.Pair{EN: "Unrestricted lore entry."}, Order: 4},
		{UID: 5, ApplicableLocations: []string{"lighthouse"}, Content: i18n.Pair{EN: "Not relevant at the dock."}, Order: 5},
	}, func(e worldpack.LoreEntry) string { return strconv.Itoa(e.UID) })
	if err != nil {
		t.Fatal(err)
	}
	npcs, _ := worldpack.NewCatalog([]worldpack.NPC{}, func(n worldpack.NPC) string { return n.ID })

	return &worldpack.Pack{Regions: regions, Locations: locations, Lore: lore, NPCs: npcs}
}

func TestAssembleLocationWithRegion(t *testing.T) {
	t.Parallel()
	pack := buildTestPack(t)
	a := New(pack)

	ctx, err := a.Assemble(context.Background(), "dock", map[string]bool{"rusty_key": true}, "en")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if ctx.Region.ID != "harbor_district" {
		t.Errorf("Region.ID = %q, want harbor_district", ctx.Region.ID)
	}
	if len(ctx.Location.HiddenItemsRevealed) != 1 || ctx.Location.HiddenItemsRevealed[0] != "rusty_key" {
		t.Errorf("HiddenItemsRevealed = %v, want [rusty_key]", ctx.Location.HiddenItemsRevealed)
	}
	if len(ctx.Location.HiddenItemsRemaining) != 1 || ctx.Location.HiddenItemsRemaining[0] != "old_rope" {
		t.Errorf("HiddenItemsRemaining = %v, want [old_rope]", ctx.Location.HiddenItemsRemaining)
	}
	if len(ctx.BasicLore) != 4 {
		t.Errorf("BasicLore length = %d, want 4 (entries 1,2,3,4; not 5)", len(ctx.BasicLore))
	}
	if ctx.AtmosphereGuidance == "" {
		t.Error("AtmosphereGuidance should not be empty when region tone and atmosphere are set")
	}
}

func TestAssembleLocationWithoutRegionUsesGlobalSentinel(t *testing.T) {
	t.Parallel()
	pack := buildTestPack(t)
	a := New(pack)

	ctx, err := a.Assemble(context.Background(), "lighthouse", nil, "en")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if ctx.Region.ID != globalRegionID {
		t.Errorf("Region.ID = %q, want %q", ctx.Region.ID, globalRegionID)
	}
	if ctx.Region.Name != "Global Region" {
		t.Errorf("Region.Name = %q, want Global Region", ctx.Region.Name)
	}
}

func TestFilterNPCLoreLegacyKnowsEverything(t *testing.T) {
	t.Parallel()
	pack := buildTestPack(t)
	npc := worldpack.NPC{ID: "keeper"}
	got := FilterNPCLore(pack, npc, "dock")
	if len(got) != pack.Lore.Len() {
		t.Errorf("legacy NPC should know all %d entries, got %d", pack.Lore.Len(), len(got))
	}
}

func TestFilterNPCLoreScoped(t *testing.T) {
	t.Parallel()
	pack := buildTestPack(t)
	npc := worldpack.NPC{ID: "keeper", Body: worldpack.Body{
		LocationKnowledge: map[string][]int{"dock": {1, 2}},
	}}
	got := FilterNPCLore(pack, npc, "dock")
	if len(got) != 2 {
		t.Fatalf("expected 2 known entries at dock, got %d", len(got))
	}

	none := FilterNPCLore(pack, npc, "lighthouse")
	if len(none) != 0 {
		t.Errorf("NPC should know nothing at an unlisted location, got %d entries", len(none))
	}
}
