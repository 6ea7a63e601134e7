package session

import (
	"context"
	"testing"
	"time"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
)

func TestConsolidator_ConsolidateNow(t *testing.T) {
	store := &fakeStore{}
	state := New("session-1", "demo", "start", "en", worldpack.PlayerCharacter{})
	state.AddMessage("player", "", "I attack the goblin!")

	c := NewConsolidator(ConsolidatorConfig{
		Store:     store,
		State:     state,
		SessionID: "session-1",
	})

	if err := c.ConsolidateNow(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("expected 1 snapshot write, got %d", store.saves)
	}

	restored, err := Unmarshal(store.loadData)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(restored.Messages) != 1 || restored.Messages[0].Content != "I attack the goblin!" {
		t.Errorf("restored snapshot missing the appended message: %+v", restored.Messages)
	}
}

func TestConsolidator_ConsolidateNowReflectsLatestState(t *testing.T) {
	store := &fakeStore{}
	state := New("session-1", "demo", "start", "en", worldpack.PlayerCharacter{})

	c := NewConsolidator(ConsolidatorConfig{Store: store, State: state, SessionID: "session-1"})

	_ = c.ConsolidateNow(context.Background())
	state.AddMessage("player", "", "Second message")
	_ = c.ConsolidateNow(context.Background())

	restored, err := Unmarshal(store.loadData)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(restored.Messages) != 1 {
		t.Errorf("expected the latest snapshot to carry 1 message, got %d", len(restored.Messages))
	}
}

func TestConsolidator_DefaultInterval(t *testing.T) {
	c := NewConsolidator(ConsolidatorConfig{
		Store:     &fakeStore{},
		State:     New("s1", "demo", "start", "en", worldpack.PlayerCharacter{}),
		SessionID: "s1",
	})
	if c.interval != 30*time.Minute {
		t.Errorf("expected default interval of 30m, got %v", c.interval)
	}
}

func TestConsolidator_StartStop(t *testing.T) {
	store := &fakeStore{}
	state := New("session-1", "demo", "start", "en", worldpack.PlayerCharacter{})
	state.AddMessage("player", "", "Hello")

	c := NewConsolidator(ConsolidatorConfig{
		Store:     store,
		State:     state,
		SessionID: "session-1",
		Interval:  10 * time.Millisecond,
	})

	ctx := t.Context()
	c.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	c.Stop()

	if store.saves == 0 {
		t.Error("expected at least one periodic consolidation")
	}

	c.Stop()
}
