// Package pgvector backs vectorstore.Store with a PostgreSQL table per
// collection and a pgvector HNSW index, queried with an
// embedding-column-plus-cosine-distance-ORDER-BY pattern.
package pgvector

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/mrwong99/adventure-engine/pkg/vectorstore"
)

// Store is a Postgres-backed vectorstore.Store. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
	dim  int
}

// New wraps an existing pool. dim is the embedding dimension every
// collection's documents are stored at (1024 by default, per the vector
// store's external contract).
func New(pool *pgxpool.Pool, dim int) *Store {
	if dim <= 0 {
		dim = 1024
	}
	return &Store{pool: pool, dim: dim}
}

// GetOrCreateCollection implements vectorstore.Store. The collection name is
// used, lightly sanitised, as the backing table name. A repeated call for the
// same name reuses the existing table but returns a collection that embeds
// with the embed passed to that call.
func (s *Store) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string, embed vectorstore.EmbedFunc) (vectorstore.Collection, error) {
	table := sanitizeTableName(name)
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id        TEXT PRIMARY KEY,
			document  TEXT NOT NULL,
			metadata  JSONB NOT NULL DEFAULT '{}',
			embedding VECTOR(%d) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
			USING hnsw (embedding vector_cosine_ops);`, table, s.dim, table, table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("pgvector: creating collection %q: %w", name, err)
	}
	return &collection{pool: s.pool, table: table, embed: embed}, nil
}

type collection struct {
	pool  *pgxpool.Pool
	table string
	embed vectorstore.EmbedFunc
}

func (c *collection) Add(ctx context.Context, ids, documents []string, metadatas []map[string]string) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("pgvector: ids/documents/metadatas length mismatch")
	}
	for i, id := range ids {
		vec, err := c.embed(ctx, documents[i])
		if err != nil {
			return fmt.Errorf("pgvector: embedding document %q: %w", id, err)
		}
		q := fmt.Sprintf(`
			INSERT INTO %s (id, document, metadata, embedding)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				document = EXCLUDED.document,
				metadata = EXCLUDED.metadata,
				embedding = EXCLUDED.embedding`, c.table)
		if _, err := c.pool.Exec(ctx, q, id, documents[i], metadatas[i], pgv.NewVector(vec)); err != nil {
			return fmt.Errorf("pgvector: upserting %q: %w", id, err)
		}
	}
	return nil
}

func (c *collection) Query(ctx context.Context, queryText string, k int, where map[string]string) (vectorstore.QueryResult, error) {
	vec, err := c.embed(ctx, queryText)
	if err != nil {
		return vectorstore.QueryResult{}, fmt.Errorf("pgvector: embedding query: %w", err)
	}

	args := []any{pgv.NewVector(vec)}
	var conditions []string
	for key, val := range where {
		args = append(args, key, val)
		conditions = append(conditions, fmt.Sprintf("metadata ->> $%d = $%d", len(args)-1, len(args)))
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, k)

	q := fmt.Sprintf(`
		SELECT id, document, metadata, embedding <=> $1 AS distance
		FROM %s
		%s
		ORDER BY distance
		LIMIT $%d`, c.table, whereClause, len(args))

	rows, err := c.pool.Query(ctx, q, args...)
	if err != nil {
		return vectorstore.QueryResult{}, fmt.Errorf("pgvector: query: %w", err)
	}

	var out vectorstore.QueryResult
	_, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (struct{}, error) {
		var (
			id, doc  string
			meta     map[string]string
			distance float32
		)
		if err := row.Scan(&id, &doc, &meta, &distance); err != nil {
			return struct{}{}, err
		}
		out.IDs = append(out.IDs, id)
		out.Documents = append(out.Documents, doc)
		out.Metadatas = append(out.Metadatas, meta)
		out.Distances = append(out.Distances, distance)
		return struct{}{}, nil
	})
	if err != nil {
		return vectorstore.QueryResult{}, fmt.Errorf("pgvector: scanning rows: %w", err)
	}
	return out, nil
}

func sanitizeTableName(name string) string {
	var b strings.Builder
	b.WriteString("vs_")
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
