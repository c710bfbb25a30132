// Package memory provides in-memory implementations of driven storage
// ports, used for tests and the ephemeral development mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
)

// Ensure LessonStore implements the interface.
var _ driven.LessonStore = (*LessonStore)(nil)

// LessonStore is an in-memory implementation of driven.LessonStore.
type LessonStore struct {
	mu      sync.RWMutex
	lessons map[string]domain.Lesson
}

// NewLessonStore creates a new in-memory lesson store.
func NewLessonStore() *LessonStore {
	return &LessonStore{
		lessons: make(map[string]domain.Lesson),
	}
}

// Put inserts or replaces a lesson by ID.
func (s *LessonStore) Put(_ context.Context, lesson domain.Lesson) error {
	if lesson.ID == "" {
		return fmt.Errorf("lesson ID is empty: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.lessons[lesson.ID]; ok {
		lesson.CreatedAt = existing.CreatedAt
	} else if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	s.lessons[lesson.ID] = lesson
	return nil
}

// Get retrieves a lesson by ID.
func (s *LessonStore) Get(_ context.Context, id string) (*domain.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lesson, ok := s.lessons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &lesson, nil
}

// List returns all lessons ordered by module and position.
func (s *LessonStore) List(_ context.Context) ([]domain.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Lesson, 0, len(s.lessons))
	for _, lesson := range s.lessons {
		result = append(result, lesson)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ModuleID != result[j].ModuleID {
			return result[i].ModuleID < result[j].ModuleID
		}
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Count returns the number of stored lessons.
func (s *LessonStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lessons), nil
}

// Close releases resources.
func (s *LessonStore) Close() error {
	return nil
}
