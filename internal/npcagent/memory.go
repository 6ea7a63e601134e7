package npcagent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/vectorstore"
)

// MemoryCollectionName returns the vector store collection name for npcID's
// memories, used both when querying and when persisting new memories.
func MemoryCollectionName(npcID string) string {
	return "npc_memories_" + npcID
}

// RetrieveMemories returns the topK most similar past events to playerInput.
// If the vector store collection is unavailable it falls back to raw memory
// entries from the NPC's world-pack-seeded memory map (see recentRawMemory).
func RetrieveMemories(ctx context.Context, store vectorstore.Store, embed vectorstore.EmbedFunc, npc worldpack.NPC, playerInput string, topK int, log *slog.Logger) []string {
	if log == nil {
		log = slog.Default()
	}
	if store != nil {
		if col, err := store.GetOrCreateCollection(ctx, MemoryCollectionName(npc.ID), map[string]string{"npc_id": npc.ID}, embed); err == nil {
			res, err := col.Query(ctx, playerInput, topK, nil)
			if err == nil {
				return res.Documents
			}
			log.WarnContext(ctx, "npcagent: memory query failed, falling back to recent raw memory", "npc_id", npc.ID, "error", err)
		} else {
			log.WarnContext(ctx, "npcagent: memory collection unavailable, falling back to recent raw memory", "npc_id", npc.ID, "error", err)
		}
	}
	return recentRawMemory(npc, topK)
}

// recentRawMemory returns up to n of the NPC's raw memory entries across
// all keys, used when the vector store can't be reached. Raw entries carry
// no timestamp, so these are the last n in sorted string order, not the
// most recent ones.
func recentRawMemory(npc worldpack.NPC, n int) []string {
	var all []string
	for _, events := range npc.Body.Memory {
		all = append(all, events...)
	}
	sort.Strings(all) // no timestamp carried on raw strings; stable order only.
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// PersistMemory adds a newly reported memory to npcID's collection. Called
// by the coordinator after a roleplay turn returns a NewMemory, never by the
// Roleplayer itself.
func PersistMemory(ctx context.Context, store vectorstore.Store, embed vectorstore.EmbedFunc, npcID, event string, keywords []string, timestampISO string) error {
	col, err := store.GetOrCreateCollection(ctx, MemoryCollectionName(npcID), map[string]string{"npc_id": npcID}, embed)
	if err != nil {
		return fmt.Errorf("npcagent: persisting memory for %q: %w", npcID, err)
	}
	id := npcID + "_" + timestampISO
	metadata := map[string]string{
		"npc_id":    npcID,
		"keywords":  joinKeywords(keywords),
		"timestamp": timestampISO,
	}
	return col.Add(ctx, []string{id}, []string{event}, []map[string]string{metadata})
}

func joinKeywords(keywords []string) string {
	out := ""
	for i, k := range keywords {
		if i > 0 {
			out += ","
		}
		out += k
	}
	return out
}
