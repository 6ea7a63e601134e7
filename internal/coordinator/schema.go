package coordinator

import (
	"github.com/mrwong99/adventure-engine/internal/llmjson"
)

// actionKind is the discriminant the ReAct prompt asks the LLM to emit.
type actionKind string

const (
	actionRespond   actionKind = "RESPOND"
	actionCallAgent actionKind = "CALL_AGENT"
)

// reactAction is the union of both action shapes the ReAct loop expects
// from one LLM turn. Only the fields for the named Action are populated.
type reactAction struct {
	Action actionKind `json:"action"`

	// RESPOND fields.
	Narrative      string `json:"narrative"`
	TargetLocation string `json:"target_location"`
	Reasoning      string `json:"reasoning"`

	// CALL_AGENT fields.
	AgentName    string         `json:"agent_name"`
	AgentContext map[string]any `json:"agent_context"`
}

// decodeReactAction extracts a reactAction from raw LLM output. When no
// balanced JSON object is found, raw is treated as a plain narrative RESPOND
// — the documented fallback for unparseable completions — rather than
// surfacing a parse failure for every stylistic deviation.
func decodeReactAction(raw string) reactAction {
	var a reactAction
	if err := llmjson.Decode(raw, &a); err != nil {
		return reactAction{Action: actionRespond, Narrative: raw}
	}
	if a.Action == "" {
		a.Action = actionRespond
		if a.Narrative == "" {
			a.Narrative = raw
		}
	}
	return a
}
