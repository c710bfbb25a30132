// Package memory provides an in-process vector store with exact cosine
// search. It backs tests and local development without a Qdrant server.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

type collection struct {
	schema domain.CollectionSchema
	points map[uint64]domain.Record
}

// Store keeps collections in memory, guarded for concurrent readers.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// EnsureCollection makes the collection exist with exactly the given schema,
// destroying and recreating it on any mismatch.
func (s *Store) EnsureCollection(_ context.Context, schema domain.CollectionSchema) error {
	if schema.Dimensions <= 0 {
		return fmt.Errorf("memory: dimensions must be positive: %w", domain.ErrDimensionMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.collections[schema.Name]; ok && existing.schema == schema {
		return nil
	}
	s.collections[schema.Name] = &collection{
		schema: schema,
		points: make(map[uint64]domain.Record),
	}
	return nil
}

// Upsert inserts or overwrites records by ID.
func (s *Store) Upsert(_ context.Context, name string, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("memory: collection %s: %w", name, domain.ErrCollectionNotFound)
	}
	for _, r := range records {
		if len(r.Vector) != coll.schema.Dimensions {
			return fmt.Errorf("memory: record %d has %d dimensions, collection declares %d: %w",
				r.ID, len(r.Vector), coll.schema.Dimensions, domain.ErrDimensionMismatch)
		}
		coll.points[r.ID] = r
	}
	return nil
}

// Search returns at most topK hits with cosine similarity >= minScore,
// best first.
func (s *Store) Search(_ context.Context, name string, vector []float32, topK int, minScore float64) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("memory: collection %s: %w", name, domain.ErrCollectionNotFound)
	}
	if len(vector) != coll.schema.Dimensions {
		return nil, fmt.Errorf("memory: query has %d dimensions, collection declares %d: %w",
			len(vector), coll.schema.Dimensions, domain.ErrDimensionMismatch)
	}
	if topK <= 0 {
		topK = 5
	}

	hits := make([]domain.SearchHit, 0, len(coll.points))
	for id, r := range coll.points {
		score := cosine(vector, r.Vector)
		if score < minScore {
			continue
		}
		hits = append(hits, domain.SearchHit{ID: id, Score: score, Payload: r.Payload})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// Count returns the number of points in a collection. Test helper.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[name]
	if !ok {
		return 0
	}
	return len(coll.points)
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
