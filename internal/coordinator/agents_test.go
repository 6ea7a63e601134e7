package coordinator

import (
	"context"
	"strconv"
	"testing"

	"github.com/mrwong99/adventure-engine/internal/lore"
	"github.com/mrwong99/adventure-engine/internal/npcagent"
	"github.com/mrwong99/adventure-engine/internal/rule"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
	"github.com/mrwong99/adventure-engine/pkg/llm"
	llmmock "github.com/mrwong99/adventure-engine/pkg/llm/mock"
)

func testPack(t *testing.T) *worldpack.Pack {
	t.Helper()
	npcs, err := worldpack.NewCatalog([]worldpack.NPC{
		{ID: "old_guard", Soul: worldpack.Soul{Name: "Old Guard"}},
	}, func(n worldpack.NPC) string { return n.ID })
	if err != nil {
		t.Fatalf("building npc catalog: %v", err)
	}
	locations, err := worldpack.NewCatalog([]worldpack.Location{
		{ID: "gatehouse", Name: i18n.Pair{EN: "Gatehouse"}},
	}, func(l worldpack.Location) string { return l.ID })
	if err != nil {
		t.Fatalf("building location catalog: %v", err)
	}
	regions, err := worldpack.NewCatalog([]worldpack.Region{}, func(r worldpack.Region) string { return r.ID })
	if err != nil {
		t.Fatalf("building region catalog: %v", err)
	}
	lores, err := worldpack.NewCatalog([]worldpack.LoreEntry{
		{UID: 1, Content: i18n.Pair{EN: "The keep has stood for a thousand years."}, Constant: true},
	}, func(e worldpack.LoreEntry) string { return strconv.Itoa(e.UID) })
	if err != nil {
		t.Fatalf("building lore catalog: %v", err)
	}
	return &worldpack.Pack{
		PlayerCharacter: worldpack.PlayerCharacter{Name: "Mara"},
		NPCs:            npcs,
		Locations:       locations,
		Regions:         regions,
		Lore:            lores,
	}
}

func TestRuleAgentInvoke(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: `{"needs_check": false, "reasoning": "trivial", "check_plan": null}`},
	}
	agent := newRuleAgent(rule.New(provider))

	ctx := RuleContext("look around", worldpack.PlayerCharacter{Name: "Mara"}, nil, "en")
	resp, err := agent.Invoke(context.Background(), ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || resp.Content != "trivial" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if needsCheck, _ := resp.Metadata["needs_check"].(bool); needsCheck {
		t.Error("expected needs_check=false")
	}
}

func TestLoreAgentInvoke(t *testing.T) {
	pack := testPack(t)
	retriever := lore.New(pack, nil, lore.DefaultConfig(), nil)
	agent := newLoreAgent(retriever)

	ctx := LoreContext("keep", "gatehouse", "", nil, "pack1", "en")
	resp, err := agent.Invoke(context.Background(), ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content == "" {
		t.Error("expected non-empty lore text")
	}
}

func TestNPCFactoryBuildsAndCachesWrapper(t *testing.T) {
	pack := testPack(t)
	provider := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `{"response":"Halt!","emotion":"wary","action":"blocks the gate","relation_change":0,"new_memory":null}`}}
	roleplayer := npcagent.New(provider, nil, nil, nil)
	f := newNPCFactory(pack, roleplayer)

	a, ok := f.build("npc_old_guard")
	if !ok {
		t.Fatal("expected the factory to resolve npc_old_guard")
	}
	a2, _ := f.build("npc_old_guard")
	if a != a2 {
		t.Error("expected the factory to cache the wrapper across calls")
	}

	if _, ok := f.build("npc_nobody"); ok {
		t.Error("expected no wrapper for an unknown npc id")
	}
	if _, ok := f.build("rule"); ok {
		t.Error("expected the factory to reject non-npc_ names")
	}
}

func TestNPCAgentWrapperInvoke(t *testing.T) {
	pack := testPack(t)
	provider := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `{"response":"Halt!","emotion":"wary","action":"blocks the gate","relation_change":-2,"new_memory":null}`}}
	roleplayer := npcagent.New(provider, nil, nil, nil)
	f := newNPCFactory(pack, roleplayer)
	a, _ := f.build("npc_old_guard")

	npc, _ := pack.NPCs.Get("old_guard")
	ctx := NPCContext("old_guard", npc, "let me pass", nil, npcagent.Brief, "", "gatehouse", "pack1", "en")
	resp, err := a.Invoke(context.Background(), ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "Halt!" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if rc, _ := resp.Metadata["relation_change"].(int); rc != -2 {
		t.Errorf("expected relation_change -2, got %v", resp.Metadata["relation_change"])
	}
}
