// Package rule implements the Rule Adjudicator: it decides whether a
// player's declared action needs a dice check and, afterwards, narrates the
// result.
package rule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrwong99/adventure-engine/internal/apperr"
	"github.com/mrwong99/adventure-engine/internal/dice"
	"github.com/mrwong99/adventure-engine/internal/llmjson"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
	"github.com/mrwong99/adventure-engine/pkg/llm"
	"github.com/mrwong99/adventure-engine/pkg/types"
)

// Verdict is the adjudicator's decision for one declared action.
type Verdict struct {
	NeedsCheck   bool              `json:"needs_check"`
	CheckRequest *dice.CheckRequest `json:"check_request"`
	Reasoning    string            `json:"reasoning"`
}

// verdictWire is the raw LLM JSON shape; check_plan in the wire payload
// carries bonus/penalty trait and tag names rather than resolved dice
// counts, so adjudicate resolves it into a dice.CheckRequest itself.
type verdictWire struct {
	NeedsCheck bool   `json:"needs_check"`
	Reasoning  string `json:"reasoning"`
	CheckPlan  *struct {
		Intention      string   `json:"intention"`
		FavorableTags  []string `json:"favorable_tags"`
		Unfavorable    []string `json:"unfavorable_tags"`
		Modifier       int      `json:"modifier"`
		ArgumentGrants string   `json:"argument_grants_bonus_trait"`
	} `json:"check_plan"`
}

// Adjudicator calls an LLM to decide whether a check is needed and, when it
// is, to derive the dice pool from the character's traits and tags.
type Adjudicator struct {
	provider llm.Provider
}

// New returns an Adjudicator backed by provider.
func New(provider llm.Provider) *Adjudicator {
	return &Adjudicator{provider: provider}
}

// Adjudicate decides whether action requires a dice check, given the
// character's traits, current tags, and an optional player argument that a
// specific trait should apply.
func (a *Adjudicator) Adjudicate(ctx context.Context, action string, character worldpack.PlayerCharacter, tags []string, argument string, lang string) (Verdict, error) {
	prompt := buildAdjudicationPrompt(action, character, tags, argument)

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: adjudicationSystemPrompt,
		Messages:     []types.Message{{Role: "user", Content: prompt}},
		Temperature:  0.2,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("rule: adjudicate: %w", err)
	}

	var wire verdictWire
	if err := llmjson.Decode(resp.Content, &wire); err != nil {
		return Verdict{}, fmt.Errorf("rule: adjudicate: %w", errors.Join(err, apperr.ErrParseFailure))
	}

	v := Verdict{NeedsCheck: wire.NeedsCheck, Reasoning: wire.Reasoning}
	if wire.NeedsCheck && wire.CheckPlan != nil {
		v.CheckRequest = a.derivePool(wire, character, tags, argument, lang)
	}
	return v, nil
}

// derivePool converts the named favorable/unfavorable traits and tags cited
// by the LLM into bonus/penalty dice counts and a formatted CheckRequest.
func (a *Adjudicator) derivePool(wire verdictWire, character worldpack.PlayerCharacter, tags []string, argument string, lang string) *dice.CheckRequest {
	plan := wire.CheckPlan
	bonusDice, penaltyDice := 0, 0
	var contributingTraits, contributingTags []string

	for _, trait := range character.Traits {
		if containsFold(plan.FavorableTags, trait.Name) {
			bonusDice++
			contributingTraits = append(contributingTraits, trait.Name)
		}
		if containsFold(plan.Unfavorable, trait.Name) {
			penaltyDice++
			contributingTraits = append(contributingTraits, trait.Name)
		}
	}
	for _, tag := range tags {
		if containsFold(plan.FavorableTags, tag) {
			bonusDice++
			contributingTags = append(contributingTags, tag)
		}
		if containsFold(plan.Unfavorable, tag) {
			penaltyDice++
			contributingTags = append(contributingTags, tag)
		}
	}

	// A convincing player argument adds a bonus die, or cancels a penalty
	// die if one exists, for the trait it names.
	if argument != "" && plan.ArgumentGrants != "" {
		if penaltyDice > 0 {
			penaltyDice--
		} else {
			bonusDice++
		}
		contributingTraits = append(contributingTraits, plan.ArgumentGrants)
	}

	spec, formula := dice.DeriveSpec(plan.Modifier, bonusDice, penaltyDice)

	return &dice.CheckRequest{
		Intention: plan.Intention,
		InfluencingFactors: dice.InfluencingFactors{
			Traits: contributingTraits,
			Tags:   contributingTags,
		},
		DiceFormula: formula,
		Instructions: explanation(contributingTraits, contributingTags, spec, lang),
	}
}

func explanation(traits, tags []string, spec dice.PoolSpec, lang string) i18n.Pair {
	names := append(append([]string{}, traits...), tags...)
	joined := strings.Join(names, ", ")
	if joined == "" {
		joined = i18n.Pair{CN: "无特殊因素", EN: "no special factors"}.Resolve(lang)
	}
	return i18n.Pair{
		CN: fmt.Sprintf("基于 %s，奖励骰 %d，惩罚骰 %d。", joined, spec.BonusDice, spec.PenaltyDice),
		EN: fmt.Sprintf("Based on %s: %d bonus dice, %d penalty dice.", joined, spec.BonusDice, spec.PenaltyDice),
	}
}

func containsFold(names []string, target string) bool {
	for _, n := range names {
		if strings.EqualFold(n, target) {
			return true
		}
	}
	return false
}

const adjudicationSystemPrompt = `You are the rule adjudicator for a text adventure. Given a player's declared ` +
	`action, their character traits and current tags, decide whether the action's outcome is uncertain enough ` +
	`to require a dice check. Respond with a single JSON object: ` +
	`{"needs_check": bool, "reasoning": string, "check_plan": {"intention": string, "favorable_tags": [string], ` +
	`"unfavorable_tags": [string], "modifier": int, "argument_grants_bonus_trait": string} | null}.`

func buildAdjudicationPrompt(action string, character worldpack.PlayerCharacter, tags []string, argument string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action: %s\n", action)
	fmt.Fprintf(&b, "Character: %s\n", character.Name)
	for _, t := range character.Traits {
		fmt.Fprintf(&b, "Trait %q — positive: %s; negative: %s\n", t.Name, t.PositiveAspect.EN, t.NegativeAspect.EN)
	}
	fmt.Fprintf(&b, "Current tags: %s\n", strings.Join(tags, ", "))
	if argument != "" {
		fmt.Fprintf(&b, "Player argument: %s\n", argument)
	}
	return b.String()
}
