package session

import (
	"testing"
	"time"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
)

func testPlayer() worldpack.PlayerCharacter {
	return worldpack.PlayerCharacter{
		Name:       "Mara",
		Traits:     []worldpack.Trait{{Name: "Quick-tongued"}},
		FatePoints: 3,
		Tags:       []string{"右腿受伤"},
	}
}

func TestGameStateMessagesAppendOnly(t *testing.T) {
	g := New("s1", "pack1", "start", "en", testPlayer())
	g.AddMessage("player", "", "hello")
	g.AddMessage("npc", "old_guard", "halt")
	g.AddMessage("npc", "blacksmith", "welcome")

	all := g.RecentMessages(10)
	if len(all) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(all))
	}

	onlyGuard := g.RecentMessagesForNPC("old_guard", 10)
	if len(onlyGuard) != 1 || onlyGuard[0].Content != "halt" {
		t.Errorf("expected only the old_guard message, got %+v", onlyGuard)
	}
}

func TestGameStateRecentMessagesTruncatesContent(t *testing.T) {
	g := New("s1", "pack1", "start", "en", worldpack.PlayerCharacter{})
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	g.AddMessage("player", "", string(long))

	got := g.RecentMessages(1)
	if len([]rune(got[0].Content)) > 201 { // 200 chars + ellipsis rune
		t.Errorf("expected truncated content, got length %d", len([]rune(got[0].Content)))
	}
}

func TestGameStateFlagsAndDiscoveredItems(t *testing.T) {
	g := New("s1", "pack1", "start", "en", worldpack.PlayerCharacter{})
	if g.HasFlag("met_guard") {
		t.Error("flag should not be set initially")
	}
	g.AddFlag("met_guard")
	if !g.HasFlag("met_guard") {
		t.Error("expected flag to be set")
	}

	if g.HasDiscoveredItem("rusty_key") {
		t.Error("item should not be discovered initially")
	}
	g.AddDiscoveredItem("rusty_key")
	if !g.HasDiscoveredItem("rusty_key") {
		t.Error("expected item to be discovered")
	}
	ids := g.DiscoveredItemIDs()
	if len(ids) != 1 || ids[0] != "rusty_key" {
		t.Errorf("expected [rusty_key], got %v", ids)
	}
}

func TestGameStateLocationAndTurn(t *testing.T) {
	g := New("s1", "pack1", "gatehouse", "en", worldpack.PlayerCharacter{})
	g.UpdateLocation("courtyard", []string{"old_guard"})
	if g.Location() != "courtyard" {
		t.Errorf("Location() = %q, want courtyard", g.Location())
	}
	if got := g.ActiveNPCs(); len(got) != 1 || got[0] != "old_guard" {
		t.Errorf("ActiveNPCs() = %v, want [old_guard]", got)
	}

	if g.IncrementTurn() != 1 {
		t.Error("expected first turn to be 1")
	}
	if g.IncrementTurn() != 2 {
		t.Error("expected second turn to be 2")
	}
}

func TestGameStatePendingResumeRoundTrip(t *testing.T) {
	g := New("s1", "pack1", "start", "en", worldpack.PlayerCharacter{})
	g.SetPhase(PhaseGM)

	g.SaveReactState("open the gate", 3, []AgentResult{{Agent: "rule", Content: "needs check", Success: true}})
	if g.CurrentPhase() != PhaseDiceCheck {
		t.Errorf("expected phase dice_check after SaveReactState, got %q", g.CurrentPhase())
	}

	resume := g.TakeReactState()
	if resume == nil || resume.PlayerInput != "open the gate" || resume.Iteration != 3 {
		t.Fatalf("unexpected resume state: %+v", resume)
	}

	g.ClearReactState()
	if g.TakeReactState() != nil {
		t.Error("expected pending resume to be cleared")
	}
}

func TestGameStateUpdatedAtAdvancesOnMutation(t *testing.T) {
	g := New("s1", "pack1", "start", "en", worldpack.PlayerCharacter{})
	before := g.UpdatedAt
	time.Sleep(time.Millisecond)
	g.AddFlag("x")
	if !g.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance after a mutation")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	g := New("s1", "pack1", "gatehouse", "en", testPlayer())
	g.AddMessage("player", "", "hi")
	g.AddFlag("met_guard")
	g.AddDiscoveredItem("rusty_key")
	g.IncrementTurn()
	g.AddTag("startled")
	g.AdjustNPCRelation("old_guard", 2)
	g.SetLastCheckResult("success", 9)

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if restored.SessionID != g.SessionID || restored.CurrentLocation != g.CurrentLocation {
		t.Errorf("restored state mismatch: %+v", restored)
	}
	if !restored.HasFlag("met_guard") || !restored.HasDiscoveredItem("rusty_key") {
		t.Error("restored state lost flags or discovered items")
	}
	if restored.Turn != 1 || len(restored.Messages) != 1 {
		t.Errorf("restored state lost turn/messages: turn=%d messages=%d", restored.Turn, len(restored.Messages))
	}
	if restored.Player.Name != "Mara" || restored.FatePoints() != 3 {
		t.Errorf("restored state lost player sheet: %+v", restored.Player)
	}
	if got := restored.PlayerTags(); len(got) != 2 || !contains(got, "startled") {
		t.Errorf("restored state lost tags: %v", got)
	}
	if restored.NPCRelation("old_guard") != 2 {
		t.Errorf("restored state lost NPC relation: %d", restored.NPCRelation("old_guard"))
	}
	check := restored.LastCheck()
	if check == nil || check.Outcome != "success" || check.Total != 9 {
		t.Errorf("restored state lost last check result: %+v", check)
	}
}

func contains(xs []string, target string) bool {
	for _, x := range xs {
		if x == target {
			return true
		}
	}
	return false
}

func TestGameStatePlayerTagsAndFatePoints(t *testing.T) {
	g := New("s1", "pack1", "start", "en", testPlayer())

	if got := g.PlayerTags(); len(got) != 1 || got[0] != "右腿受伤" {
		t.Fatalf("PlayerTags() = %v, want the seeded tag", got)
	}

	g.AddTag("右腿受伤") // already present, must not duplicate
	g.AddTag("exhausted")
	got := g.PlayerTags()
	if len(got) != 2 {
		t.Errorf("expected 2 distinct tags after adding a duplicate, got %v", got)
	}

	g.RemoveTag("右腿受伤")
	got = g.PlayerTags()
	if len(got) != 1 || got[0] != "exhausted" {
		t.Errorf("expected only 'exhausted' to remain, got %v", got)
	}

	if g.FatePoints() != 3 {
		t.Fatalf("FatePoints() = %d, want 3", g.FatePoints())
	}
	for i := 0; i < 3; i++ {
		if !g.SpendFatePoint() {
			t.Fatalf("SpendFatePoint() returned false with points remaining")
		}
	}
	if g.SpendFatePoint() {
		t.Error("SpendFatePoint() should return false once points are exhausted")
	}
	if g.FatePoints() != 0 {
		t.Errorf("FatePoints() = %d, want 0", g.FatePoints())
	}
	g.RestoreFatePoint()
	if g.FatePoints() != 1 {
		t.Errorf("FatePoints() = %d, want 1 after restore", g.FatePoints())
	}
}

func TestGameStateNPCRelationsAndLastCheckResult(t *testing.T) {
	g := New("s1", "pack1", "start", "en", worldpack.PlayerCharacter{})

	if g.NPCRelation("old_guard") != 0 {
		t.Fatalf("expected zero relation before any adjustment")
	}
	if got := g.AdjustNPCRelation("old_guard", 3); got != 3 {
		t.Errorf("AdjustNPCRelation() = %d, want 3", got)
	}
	if got := g.AdjustNPCRelation("old_guard", -1); got != 2 {
		t.Errorf("AdjustNPCRelation() = %d, want 2", got)
	}

	if g.LastCheck() != nil {
		t.Error("expected no last check result initially")
	}
	g.SetLastCheckResult("partial", 7)
	check := g.LastCheck()
	if check == nil || check.Outcome != "partial" || check.Total != 7 {
		t.Errorf("unexpected last check result: %+v", check)
	}
}

func TestRegistryBindLookupUnbind(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("s1"); ok {
		t.Error("expected no binding before Bind")
	}

	state := New("s1", "pack1", "start", "en", worldpack.PlayerCharacter{})
	r.Bind("s1", &Binding{State: state})

	b, ok := r.Lookup("s1")
	if !ok || b.State != state {
		t.Fatal("expected to find the bound session")
	}

	r.Unbind("s1")
	if _, ok := r.Lookup("s1"); ok {
		t.Error("expected binding to be gone after Unbind")
	}
}
