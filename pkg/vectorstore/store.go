// Package vectorstore defines the collection/add/query contract every
// embedding-backed retrieval path (lore's vector half, NPC memory) is built
// against. The default embedding dimension is 1024; vectors are expected to
// be L2-normalized so that cosine distance equals 1 minus the dot product.
package vectorstore

import "context"

// EmbedFunc turns text into an embedding vector. Collections carry their own
// EmbedFunc so callers never have to know which model backs a collection.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Collection is a named, independently queryable set of embedded documents.
type Collection interface {
	// Add upserts documents under ids, embedding each with the collection's
	// EmbedFunc. len(ids) == len(documents) == len(metadatas).
	Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]string) error

	// Query returns the k nearest documents to queryText by cosine
	// distance, narrowed by where (an exact-match metadata filter; nil or
	// empty matches everything).
	Query(ctx context.Context, queryText string, k int, where map[string]string) (QueryResult, error)
}

// QueryResult holds one Query call's hits, index-aligned across all four
// slices.
type QueryResult struct {
	IDs        []string
	Documents  []string
	Metadatas  []map[string]string
	Distances  []float32 // cosine distance in [0, 2]; 0 is identical.
}

// Store creates or reuses named collections.
type Store interface {
	// GetOrCreateCollection returns the collection named name, creating it
	// with the given metadata and embedding function if it does not yet
	// exist. A second call with the same name ignores metadata/embed and
	// returns the existing collection.
	GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string, embed EmbedFunc) (Collection, error)
}

// Similarity converts a cosine distance into the 1-distance similarity
// figure callers weight their vector scores by.
func Similarity(distance float32) float32 {
	return 1 - distance
}
