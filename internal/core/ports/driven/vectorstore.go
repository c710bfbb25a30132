package driven

import (
	"context"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
)

// VectorStore owns a named collection of (id, vector, payload) records and
// answers top-k similarity queries against it.
//
// Collection lifecycle: absent, creating, ready. A ready collection may be
// destroyed and recreated, never partially migrated.
type VectorStore interface {
	// EnsureCollection makes the collection exist with exactly the given
	// schema. Idempotent: a matching collection is left alone; a collection
	// with a different dimensionality or metric is destroyed and recreated.
	EnsureCollection(ctx context.Context, schema domain.CollectionSchema) error

	// Upsert inserts or overwrites records by ID. Implementations split
	// large record sets into provider-sized batches rather than sending
	// unbounded payloads in one call.
	Upsert(ctx context.Context, collection string, records []domain.Record) error

	// Search returns at most topK hits with score >= minScore, ordered by
	// descending score. An empty result is a valid, non-error outcome.
	// Querying a collection that was never created fails with
	// domain.ErrCollectionNotFound.
	Search(ctx context.Context, collection string, vector []float32, topK int, minScore float64) ([]domain.SearchHit, error)

	// Close releases resources.
	Close() error
}
