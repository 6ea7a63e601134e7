package session

import "time"

// Message is one entry in a session's conversation history. Role is one of
// "player", "assistant" (narrator), or "npc"; NPCID is set only for npc
// entries and is what lets the Coordinator slice recent_messages down to a
// single NPC's own turns (§4.5).
type Message struct {
	Role      string    `json:"role"`
	NPCID     string    `json:"npc_id,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// truncated returns content capped at n runes, matching the Coordinator's
// "lightly formatted, truncated to 200 chars" history rule.
func truncated(content string, n int) string {
	r := []rune(content)
	if len(r) <= n {
		return content
	}
	return string(r[:n]) + "…"
}
