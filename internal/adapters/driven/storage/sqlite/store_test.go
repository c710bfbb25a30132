package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testLesson(id, moduleID string, position int) domain.Lesson {
	return domain.Lesson{
		ID:       id,
		ModuleID: moduleID,
		Title:    "Lesson " + id,
		Body:     "Body of lesson " + id,
		Position: position,
	}
}

func TestNewStore_CreatesDatabaseFile(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(tempDir, "lessons.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), testLesson("l1", "m1", 0)))
	require.NoError(t, store.Close())

	// Reopening must not re-run migrations or lose data.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPut_InsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	lesson := testLesson("intro-sensors", "robotics-101", 2)
	require.NoError(t, store.Put(ctx, lesson))

	got, err := store.Get(ctx, "intro-sensors")
	require.NoError(t, err)
	assert.Equal(t, lesson.ID, got.ID)
	assert.Equal(t, lesson.ModuleID, got.ModuleID)
	assert.Equal(t, lesson.Title, got.Title)
	assert.Equal(t, lesson.Body, got.Body)
	assert.Equal(t, lesson.Position, got.Position)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestPut_UpdatePreservesCreatedAt(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	lesson := testLesson("l1", "m1", 0)
	lesson.CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, lesson))

	lesson.Title = "Updated title"
	require.NoError(t, store.Put(ctx, lesson))

	got, err := store.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Updated title", got.Title)
	assert.Equal(t, lesson.CreatedAt, got.CreatedAt.UTC())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPut_EmptyIDRejected(t *testing.T) {
	store := setupTestStore(t)

	err := store.Put(context.Background(), domain.Lesson{Title: "no id"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestGet_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_OrderedByModuleAndPosition(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testLesson("b2", "module-b", 1)))
	require.NoError(t, store.Put(ctx, testLesson("a1", "module-a", 1)))
	require.NoError(t, store.Put(ctx, testLesson("b1", "module-b", 0)))
	require.NoError(t, store.Put(ctx, testLesson("a0", "module-a", 0)))

	lessons, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, lessons, 4)

	var ids []string
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"a0", "a1", "b1", "b2"}, ids)
}

func TestList_Empty(t *testing.T) {
	store := setupTestStore(t)

	lessons, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lessons)
}

func TestCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Put(ctx, testLesson("l1", "m1", 0)))
	require.NoError(t, store.Put(ctx, testLesson("l2", "m1", 1)))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
