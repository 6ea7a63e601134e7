package scene

import (
	"strconv"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
)

// FilterNPCLore resolves what an NPC actually knows at locationID. An empty
// LocationKnowledge map means the NPC predates location-scoped knowledge and
// is treated as knowing everything (legacy behaviour); a populated map with
// no entry for this location means the NPC knows nothing relevant here.
func FilterNPCLore(pack *worldpack.Pack, npc worldpack.NPC, locationID string) []worldpack.LoreEntry {
	if len(npc.Body.LocationKnowledge) == 0 {
		return pack.Lore.All()
	}

	uids, ok := npc.Body.LocationKnowledge[locationID]
	if !ok {
		return nil
	}

	var out []worldpack.LoreEntry
	for _, uid := range uids {
		if entry, ok := pack.Lore.Get(strconv.Itoa(uid)); ok {
			out = append(out, entry)
		}
	}
	return out
}
