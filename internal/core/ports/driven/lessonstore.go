package driven

import (
	"context"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
)

// LessonStore persists the lesson corpus. The indexing pipeline reads the
// whole corpus from here; the store never talks to the vector store.
type LessonStore interface {
	// Put inserts or replaces a lesson by ID.
	Put(ctx context.Context, lesson domain.Lesson) error

	// Get retrieves a lesson by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Lesson, error)

	// List returns all lessons ordered by module and position.
	List(ctx context.Context) ([]domain.Lesson, error)

	// Count returns the number of stored lessons.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
