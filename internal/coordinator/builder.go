package coordinator

import (
	"github.com/mrwong99/adventure-engine/internal/lore"
	"github.com/mrwong99/adventure-engine/internal/npcagent"
	"github.com/mrwong99/adventure-engine/internal/rule"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
)

// BuildRegistry wires the Rule Adjudicator, Lore Retriever, and NPC
// Roleplayer into a Registry ready for a Loop: "rule" and "lore" are
// registered statically, and npc_<id> falls through to a factory scoped to
// pack's NPC catalog.
func BuildRegistry(pack *worldpack.Pack, adjudicator *rule.Adjudicator, retriever *lore.Retriever, roleplayer *npcagent.Roleplayer) *Registry {
	reg := NewRegistry()
	reg.Register(newRuleAgent(adjudicator))
	reg.Register(newLoreAgent(retriever))
	reg.RegisterFactory(newNPCFactory(pack, roleplayer).Factory())
	return reg
}
