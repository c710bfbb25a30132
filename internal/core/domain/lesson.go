package domain

import (
	"fmt"
	"hash/fnv"
	"time"
)

// Lesson represents a single unit of course content.
// It is the canonical source text the indexing pipeline works from.
type Lesson struct {
	// ID is the stable unique identifier for the lesson.
	ID string

	// ModuleID groups lessons into a course module.
	ModuleID string

	// Title is the human-readable lesson title.
	Title string

	// Body is the full plain-text content of the lesson.
	Body string

	// Position is the ordinal position within the module.
	Position int

	// CreatedAt is when the lesson was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the lesson was last updated.
	UpdatedAt time.Time
}

// Chunk is a bounded-length excerpt of a lesson body, the unit that gets
// embedded and indexed. Chunks are transient: once upserted into the vector
// store they are discarded, the store holds the durable copy.
type Chunk struct {
	// ID is derived from the lesson ID and ordinal position so that
	// re-indexing an unchanged corpus reproduces identical chunk identities.
	ID string

	// LessonID links back to the parent lesson.
	LessonID string

	// Text is the chunk content.
	Text string

	// Position is the ordinal position within the lesson.
	Position int
}

// NewChunk builds a chunk with its deterministic identity.
func NewChunk(lessonID, text string, position int) Chunk {
	return Chunk{
		ID:       fmt.Sprintf("%s:%d", lessonID, position),
		LessonID: lessonID,
		Text:     text,
		Position: position,
	}
}

// PointID maps the chunk identity onto a numeric vector-store point ID.
// FNV-1a keeps it deterministic across reindex runs.
func (c Chunk) PointID() uint64 {
	h := fnv.New64a()
	h.Write([]byte(c.ID))
	return h.Sum64()
}
