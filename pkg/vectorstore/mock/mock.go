// Package mock provides an in-memory vectorstore.Store for tests that need
// deterministic nearest-neighbour behaviour without a database.
package mock

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/mrwong99/adventure-engine/pkg/vectorstore"
)

// Store is a thread-safe, in-process vectorstore.Store backed by brute-force
// cosine distance. Besides unit tests, the server uses it as the vector
// store when no Postgres DSN is configured.
type Store struct {
	mu          sync.Mutex
	collections map[string]*collection
}

// New returns an empty Store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) GetOrCreateCollection(_ context.Context, name string, _ map[string]string, embed vectorstore.EmbedFunc) (vectorstore.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c := &collection{embed: embed, docs: make(map[string]doc)}
	s.collections[name] = c
	return c, nil
}

type doc struct {
	text     string
	metadata map[string]string
	vec      []float32
}

type collection struct {
	mu    sync.Mutex
	embed vectorstore.EmbedFunc
	docs  map[string]doc
}

func (c *collection) Add(ctx context.Context, ids, documents []string, metadatas []map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, id := range ids {
		vec, err := c.embed(ctx, documents[i])
		if err != nil {
			return err
		}
		c.docs[id] = doc{text: documents[i], metadata: metadatas[i], vec: vec}
	}
	return nil
}

func (c *collection) Query(ctx context.Context, queryText string, k int, where map[string]string) (vectorstore.QueryResult, error) {
	qvec, err := c.embed(ctx, queryText)
	if err != nil {
		return vectorstore.QueryResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	type scored struct {
		id       string
		d        doc
		distance float32
	}
	var candidates []scored
	for id, d := range c.docs {
		if !matches(d.metadata, where) {
			continue
		}
		candidates = append(candidates, scored{id: id, d: d, distance: cosineDistance(qvec, d.vec)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })
	if k < len(candidates) {
		candidates = candidates[:k]
	}

	var out vectorstore.QueryResult
	for _, c := range candidates {
		out.IDs = append(out.IDs, c.id)
		out.Documents = append(out.Documents, c.d.text)
		out.Metadatas = append(out.Metadatas, c.d.metadata)
		out.Distances = append(out.Distances, c.distance)
	}
	return out, nil
}

func matches(metadata, where map[string]string) bool {
	for k, v := range where {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

func cosineDistance(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32(1 - cos)
}
