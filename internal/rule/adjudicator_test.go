package rule

import (
	"context"
	"testing"

	"github.com/mrwong99/adventure-engine/internal/dice"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
	"github.com/mrwong99/adventure-engine/pkg/llm"
	"github.com/mrwong99/adventure-engine/pkg/llm/mock"
)

func testCharacter() worldpack.PlayerCharacter {
	return worldpack.PlayerCharacter{
		Name: "Mei",
		Traits: []worldpack.Trait{
			{Name: "Quick Reflexes", PositiveAspect: i18n.Pair{EN: "react fast"}, NegativeAspect: i18n.Pair{EN: "reckless"}},
			{Name: "Injured Leg", PositiveAspect: i18n.Pair{EN: "stubborn"}, NegativeAspect: i18n.Pair{EN: "slow"}},
		},
	}
}

func TestAdjudicateNeedsCheckDerivesPool(t *testing.T) {
	t.Parallel()
	provider := &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `prefix text {"needs_check": true, "reasoning": "risky", ` +
		`"check_plan": {"intention": "flee the room", "favorable_tags": ["Quick Reflexes"], "unfavorable_tags": ["Injured Leg"], "modifier": 0}} trailing`}}
	a := New(provider)

	verdict, err := a.Adjudicate(context.Background(), "run away", testCharacter(), nil, "", "en")
	if err != nil {
		t.Fatalf("Adjudicate: %v", err)
	}
	if !verdict.NeedsCheck {
		t.Fatal("expected NeedsCheck=true")
	}
	if verdict.CheckRequest == nil {
		t.Fatal("expected a CheckRequest")
	}
	if verdict.CheckRequest.DiceFormula != "2d6" {
		t.Errorf("bonus and penalty cancel out: DiceFormula = %q, want 2d6", verdict.CheckRequest.DiceFormula)
	}
}

func TestAdjudicateNoCheckNeeded(t *testing.T) {
	t.Parallel()
	provider := &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `{"needs_check": false, "reasoning": "trivial"}`}}
	a := New(provider)

	verdict, err := a.Adjudicate(context.Background(), "open an unlocked door", testCharacter(), nil, "", "en")
	if err != nil {
		t.Fatalf("Adjudicate: %v", err)
	}
	if verdict.NeedsCheck || verdict.CheckRequest != nil {
		t.Errorf("expected no check needed, got %+v", verdict)
	}
}

func TestAdjudicateMalformedJSONIsParseFailure(t *testing.T) {
	t.Parallel()
	provider := &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "not json at all"}}
	a := New(provider)

	_, err := a.Adjudicate(context.Background(), "do something", testCharacter(), nil, "", "en")
	if err == nil {
		t.Fatal("expected a parse failure error")
	}
}

func TestNarrateFallsBackOnProviderError(t *testing.T) {
	t.Parallel()
	provider := &mock.Provider{CompleteErr: errBoom}
	a := New(provider)

	result := dice.Result{Total: 11, Outcome: dice.Success}
	req := dice.CheckRequest{Intention: "climb the wall"}

	n := a.Narrate(context.Background(), result, req, "en")
	if !n.Fallback {
		t.Error("expected Fallback=true when the provider errors")
	}
	if n.Text == "" {
		t.Error("expected a non-empty fallback template")
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
