// Package lore implements the hybrid keyword+vector search over a world
// pack's lore entries described as the Lore Retriever: tokenize, score
// keyword and vector hits, merge constants, filter by visibility and
// location/region applicability, then sort and format the top results.
package lore

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/vectorstore"
)

// Config holds the scoring weights and tunables, all with the documented
// defaults. TiebreakEnabled resolves the "how should near-equal keyword
// scores be ordered" open question by breaking ties with phonetic/string
// similarity between the query term and the entry's matched key.
type Config struct {
	PrimaryWeight   float64
	SecondaryWeight float64
	VectorWeight    float64
	DualMatchBoost  float64
	TopK            int
	VectorK         int
	TiebreakEnabled bool
}

// DefaultConfig returns the weights and cardinalities stated as defaults.
func DefaultConfig() Config {
	return Config{
		PrimaryWeight:   2.0,
		SecondaryWeight: 1.0,
		VectorWeight:    0.8,
		DualMatchBoost:  1.5,
		TopK:            5,
		VectorK:         10,
		TiebreakEnabled: true,
	}
}

const constantScore = 2.0

// Retriever searches one world pack's lore catalog.
type Retriever struct {
	pack   *worldpack.Pack
	vector vectorstore.Collection // may be nil: vector half is then skipped.
	cfg    Config
	log    *slog.Logger
}

// New builds a Retriever over pack's lore catalog. vector may be nil when no
// vector store is configured; vector-store errors are always swallowed per
// the documented failure semantics, so a nil collection behaves the same as
// one that always errors.
func New(pack *worldpack.Pack, vector vectorstore.Collection, cfg Config, log *slog.Logger) *Retriever {
	if log == nil {
		log = slog.Default()
	}
	return &Retriever{pack: pack, vector: vector, cfg: cfg, log: log}
}

type candidate struct {
	entry worldpack.LoreEntry
	score float64
}

// SearchEntries runs the full scoring pipeline and returns the top TopK
// entries, ordered by (-score, order). Used directly by the Coordinator when
// it needs structured entries rather than formatted text.
func (r *Retriever) SearchEntries(ctx context.Context, query, currentLocation, currentRegion, lang string) []worldpack.LoreEntry {
	scores := make(map[int]float64)

	terms := Tokenize(query)
	for _, term := range terms {
		r.seedKeywordMatches(term, scores)
	}

	r.seedVectorMatches(ctx, query, scores)
	r.mergeConstants(scores)

	var candidates []candidate
	for uid, score := range scores {
		entry, ok := r.pack.Lore.Get(itoaUID(uid))
		if !ok {
			continue
		}
		if !r.passesFilter(entry, currentLocation, currentRegion) {
			continue
		}
		candidates = append(candidates, candidate{entry: entry, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		oi, oj := worldpack.OrderOrDefault(candidates[i].entry), worldpack.OrderOrDefault(candidates[j].entry)
		if oi != oj {
			return oi < oj
		}
		if r.cfg.TiebreakEnabled && query != "" {
			return tiebreakLess(candidates[i].entry, candidates[j].entry, query)
		}
		return candidates[i].entry.UID < candidates[j].entry.UID
	})

	k := r.cfg.TopK
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}
	out := make([]worldpack.LoreEntry, k)
	for i := 0; i < k; i++ {
		out[i] = candidates[i].entry
	}
	return out
}

// Search runs SearchEntries and formats the result as player-facing text.
func (r *Retriever) Search(ctx context.Context, query, currentLocation, currentRegion, lang string) string {
	entries := r.SearchEntries(ctx, query, currentLocation, currentRegion, lang)
	return Format(query, entries, lang)
}

func (r *Retriever) seedKeywordMatches(term string, scores map[int]float64) {
	primaryMatched := make(map[int]bool)
	for _, entry := range r.pack.Lore.All() {
		if matchesAny(term, entry.PrimaryKeys) {
			scores[entry.UID] += r.cfg.PrimaryWeight
			primaryMatched[entry.UID] = true
		}
	}
	for _, entry := range r.pack.Lore.All() {
		if primaryMatched[entry.UID] {
			continue
		}
		if matchesAny(term, entry.SecondaryKeys) {
			scores[entry.UID] += r.cfg.SecondaryWeight
		}
	}
}

// matchesAny reports a bidirectional case-insensitive substring match:
// term∈key or key∈term, for any key in keys.
func matchesAny(term string, keys []string) bool {
	term = strings.ToLower(term)
	for _, key := range keys {
		k := strings.ToLower(key)
		if strings.Contains(k, term) || strings.Contains(term, k) {
			return true
		}
	}
	return false
}

func (r *Retriever) seedVectorMatches(ctx context.Context, query string, scores map[int]float64) {
	if r.vector == nil || query == "" {
		return
	}
	lang := DetectLanguage(query)
	res, err := r.vector.Query(ctx, query, r.cfg.VectorK, map[string]string{"lang": lang})
	if err != nil {
		r.log.WarnContext(ctx, "lore: vector search failed, continuing with keyword-only results", "error", err)
		return
	}
	for i, id := range res.IDs {
		uid := uidFromDocID(id)
		similarity := 1 - float64(res.Distances[i])
		vecScore := r.cfg.VectorWeight * similarity
		if _, dual := scores[uid]; dual {
			scores[uid] *= r.cfg.DualMatchBoost
		} else {
			scores[uid] = vecScore
		}
	}
}

func (r *Retriever) mergeConstants(scores map[int]float64) {
	for _, entry := range r.pack.Lore.All() {
		if !entry.Constant {
			continue
		}
		if _, ok := scores[entry.UID]; !ok {
			scores[entry.UID] = constantScore
		}
	}
}

func (r *Retriever) passesFilter(entry worldpack.LoreEntry, currentLocation, currentRegion string) bool {
	if entry.Visibility == "detailed" && !entry.Constant {
		return false
	}
	return worldpack.LoreApplicableTo(entry, currentRegion, currentLocation)
}

// tiebreakLess orders a before b by which entry's best-matching primary key
// is phonetically/orthographically closer to query, using Jaro-Winkler
// similarity. Entries with no keys at all sort last.
func tiebreakLess(a, b worldpack.LoreEntry, query string) bool {
	return bestKeySimilarity(a.PrimaryKeys, query) > bestKeySimilarity(b.PrimaryKeys, query)
}

func bestKeySimilarity(keys []string, query string) float64 {
	best := 0.0
	for _, k := range keys {
		sim := matchr.JaroWinkler(strings.ToLower(k), strings.ToLower(query), true)
		if sim > best {
			best = sim
		}
	}
	return best
}
