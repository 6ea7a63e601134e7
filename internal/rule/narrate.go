package rule

import (
	"context"
	"strconv"

	"github.com/mrwong99/adventure-engine/internal/dice"
	"github.com/mrwong99/adventure-engine/internal/llmjson"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
	"github.com/mrwong99/adventure-engine/pkg/llm"
	"github.com/mrwong99/adventure-engine/pkg/types"
)

// Narration is the in-world result of a resolved dice check.
type Narration struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

var outcomeTemplates = map[dice.Outcome]i18n.Pair{
	dice.Critical: {CN: "大成功！你的行动取得了超出预期的效果。", EN: "A critical success — the outcome exceeds what you hoped for."},
	dice.Success:  {CN: "成功。你的行动达成了目标。", EN: "Success. Your action accomplishes what you intended."},
	dice.Partial:  {CN: "部分成功。事情有了进展，但伴随着代价。", EN: "A partial success — you make progress, but at a cost."},
	dice.Failure:  {CN: "失败。事情并未如你所愿。", EN: "Failure. Things do not go your way."},
}

// Narrate turns result into a narrative paragraph. If the adjudicator LLM
// call fails, the documented per-outcome template is returned instead with
// Fallback set.
func (a *Adjudicator) Narrate(ctx context.Context, result dice.Result, req dice.CheckRequest, lang string) Narration {
	prompt := "Intention: " + req.Intention + "\nOutcome: " + string(result.Outcome) +
		"\nTotal: " + strconv.Itoa(result.Total) + "\nWrite one short narrative paragraph describing the outcome in-world."

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: narrationSystemPrompt,
		Messages:     []types.Message{{Role: "user", Content: prompt}},
		Temperature:  0.7,
	})
	if err != nil {
		return fallbackNarration(result.Outcome, lang)
	}

	var wire struct {
		Text string `json:"text"`
	}
	if err := llmjson.Decode(resp.Content, &wire); err != nil || wire.Text == "" {
		return fallbackNarration(result.Outcome, lang)
	}
	return Narration{Text: wire.Text}
}

func fallbackNarration(outcome dice.Outcome, lang string) Narration {
	return Narration{Text: outcomeTemplates[outcome].Resolve(lang), Fallback: true}
}

const narrationSystemPrompt = `You narrate the outcome of a resolved dice check for a text adventure. ` +
	`Respond with a single JSON object: {"text": string}.`
