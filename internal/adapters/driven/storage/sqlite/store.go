package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/brightpath-labs/mentor-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
)

// Store is a SQLite-backed lesson store. A single database connection
// serves all operations; SQLite's WAL mode handles concurrent readers.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.LessonStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.mentor/data/lessons.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mentor", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "lessons.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_lessons.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Put inserts or replaces a lesson by ID.
func (s *Store) Put(ctx context.Context, lesson domain.Lesson) error {
	if lesson.ID == "" {
		return fmt.Errorf("lesson ID is empty: %w", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lessons (id, module_id, title, body, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			module_id = excluded.module_id,
			title = excluded.title,
			body = excluded.body,
			position = excluded.position,
			updated_at = excluded.updated_at
	`, lesson.ID, lesson.ModuleID, lesson.Title, lesson.Body, lesson.Position,
		lesson.CreatedAt, lesson.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving lesson: %w", err)
	}
	return nil
}

// Get retrieves a lesson by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Lesson, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, module_id, title, body, position, created_at, updated_at
		FROM lessons WHERE id = ?
	`, id)

	lesson, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning lesson: %w", err)
	}
	return lesson, nil
}

// List returns all lessons ordered by module and position.
func (s *Store) List(ctx context.Context) ([]domain.Lesson, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, module_id, title, body, position, created_at, updated_at
		FROM lessons ORDER BY module_id, position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing lessons: %w", err)
	}
	defer rows.Close()

	var lessons []domain.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lesson: %w", err)
		}
		lessons = append(lessons, *lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lessons: %w", err)
	}
	return lessons, nil
}

// Count returns the number of stored lessons.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lessons")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting lessons: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanLesson(row scanner) (*domain.Lesson, error) {
	var lesson domain.Lesson
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&lesson.ID, &lesson.ModuleID, &lesson.Title, &lesson.Body,
		&lesson.Position, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		lesson.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		lesson.UpdatedAt = updatedAt.Time
	}
	return &lesson, nil
}
