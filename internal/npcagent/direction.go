package npcagent

import (
	"github.com/mrwong99/adventure-engine/internal/dice"
	"github.com/mrwong99/adventure-engine/pkg/i18n"
)

// directionOutcome extends dice.Outcome with the critical-failure split the
// roleplay_direction table distinguishes from an ordinary failure: a
// failure where both kept dice rolled the minimum (total - modifier <= 2)
// reads as a worse failure than one where the dice were merely unlucky.
type directionOutcome string

const (
	criticalSuccess directionOutcome = "critical_success"
	success         directionOutcome = "success"
	partial         directionOutcome = "partial"
	failure         directionOutcome = "failure"
	criticalFailure directionOutcome = "critical_failure"
)

var roleplayDirections = map[directionOutcome]i18n.Pair{
	criticalSuccess: {CN: "NPC 应该非常积极地回应…主动提供帮助", EN: "NPC should respond very positively… proactively offer help"},
	success:         {CN: "NPC 应该积极回应，态度有所软化", EN: "NPC should respond positively… softened attitude"},
	partial:         {CN: "NPC 的态度应有所松动，但仍保持警惕", EN: "NPC's attitude should soften somewhat, but remain guarded"},
	failure:         {CN: "NPC 应该拒绝请求", EN: "NPC should refuse the request"},
	criticalFailure: {CN: "NPC 应该强烈拒绝，态度恶化", EN: "NPC should strongly refuse… worsened attitude"},
}

// RoleplayDirection derives the localized direction string the Coordinator
// passes to an NPC agent instead of the raw dice result.
func RoleplayDirection(result dice.Result, lang string) string {
	return roleplayDirections[classify(result)].Resolve(lang)
}

func classify(result dice.Result) directionOutcome {
	switch result.Outcome {
	case dice.Critical:
		return criticalSuccess
	case dice.Success:
		return success
	case dice.Partial:
		return partial
	case dice.Failure:
		if result.Total-result.Modifier <= 2 {
			return criticalFailure
		}
		return failure
	default:
		return failure
	}
}
