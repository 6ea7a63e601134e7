// Package diceroller exposes the dice pool engine as an MCP tool so the
// coordinator can resolve a CheckRequest without holding engine internals
// itself.
package diceroller

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/mrwong99/adventure-engine/internal/dice"
	"github.com/mrwong99/adventure-engine/internal/mcp/tools"
	"github.com/mrwong99/adventure-engine/pkg/llm"
)

// rollArgs is the JSON-decoded input for the "roll_pool" tool.
type rollArgs struct {
	Modifier    int `json:"modifier"`
	BonusDice   int `json:"bonus_dice"`
	PenaltyDice int `json:"penalty_dice"`
}

func rollHandler(engine *dice.Engine) func(context.Context, string) (string, error) {
	return func(_ context.Context, args string) (string, error) {
		var a rollArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("diceroller: failed to parse arguments: %w", err)
		}

		result := engine.Roll(dice.PoolSpec{
			Modifier:    a.Modifier,
			BonusDice:   a.BonusDice,
			PenaltyDice: a.PenaltyDice,
		})

		res, err := json.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("diceroller: failed to encode result: %w", err)
		}
		return string(res), nil
	}
}

// Tools returns the "roll_pool" tool bound to a fresh process-seeded Engine.
// Pass a custom Engine via ToolsWithEngine in tests for deterministic rolls.
func Tools() []tools.Tool {
	return ToolsWithEngine(dice.New(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))))
}

// ToolsWithEngine returns the "roll_pool" tool bound to engine.
func ToolsWithEngine(engine *dice.Engine) []tools.Tool {
	return []tools.Tool{
		{
			Definition: llm.ToolDefinition{
				Name:        "roll_pool",
				Description: "Roll the fixed 2d6 dice pool with the given modifier, bonus dice, and penalty dice, and return the kept rolls, total, and outcome bucket.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"modifier":     map[string]any{"type": "integer", "description": "Flat modifier added to the kept dice total."},
						"bonus_dice":   map[string]any{"type": "integer", "description": "Number of bonus dice contributed by favorable traits and tags."},
						"penalty_dice": map[string]any{"type": "integer", "description": "Number of penalty dice contributed by unfavorable traits and tags."},
					},
					"required": []string{"modifier", "bonus_dice", "penalty_dice"},
				},
				EstimatedDurationMs: 5,
				MaxDurationMs:       20,
				Idempotent:          false,
				CacheableSeconds:    0,
			},
			Handler:     rollHandler(engine),
			DeclaredP50: 5,
			DeclaredMax: 20,
		},
	}
}
