package domain

import "time"

// Distance identifies the similarity metric of a vector collection.
type Distance string

const (
	// DistanceCosine is cosine similarity, scores in [-1, 1], higher is closer.
	DistanceCosine Distance = "Cosine"
)

// CollectionSchema declares the shape of a vector collection. A collection
// whose stored schema disagrees with the declared one is destroyed and
// recreated, never silently tolerated.
type CollectionSchema struct {
	// Name is the collection name.
	Name string

	// Dimensions is the fixed vector length for every point in the collection.
	Dimensions int

	// Distance is the similarity metric.
	Distance Distance
}

// Payload is the metadata stored alongside each vector. Other tooling reads
// this shape off the wire, so the field set is a contract.
type Payload struct {
	// LessonID identifies the source lesson.
	LessonID string `json:"lessonId"`

	// ModuleID is the lesson's course module.
	ModuleID string `json:"moduleId"`

	// Title is the lesson title.
	Title string `json:"title"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Position is the chunk's ordinal position within the lesson.
	Position int `json:"position"`

	// CreatedAt is when the record was indexed.
	CreatedAt time.Time `json:"createdAt"`
}

// Record is the durable unit stored in the vector store.
type Record struct {
	// ID is the numeric point identifier, unique within the collection.
	ID uint64

	// Vector is the embedding of the chunk text.
	Vector []float32

	// Payload carries the chunk metadata.
	Payload Payload
}

// SearchHit is an ephemeral similarity-search result.
type SearchHit struct {
	// ID is the matched point identifier.
	ID uint64

	// Score is the similarity score, higher is more similar.
	Score float64

	// Payload is the stored metadata of the matched point.
	Payload Payload
}

// Citation references a lesson that contributed to an answer.
type Citation struct {
	// Title is the lesson title.
	Title string `json:"title"`

	// LessonID identifies the cited lesson.
	LessonID string `json:"lessonId"`
}

// ChatTurn is a single message in a conversation history.
type ChatTurn struct {
	// Role is one of "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Answer is the terminal output of the retrieval pipeline.
type Answer struct {
	// Text is the generated answer.
	Text string `json:"message"`

	// Citations lists the lessons whose chunks were included in the
	// generation context, in first-appearance order, deduplicated by lesson.
	Citations []Citation `json:"sources"`

	// Degraded marks an answer produced with reduced or missing retrieval
	// context due to an upstream failure. UIs may indicate lower confidence.
	Degraded bool `json:"degraded"`
}

// IndexReport summarises a completed reindex run.
type IndexReport struct {
	// LessonsProcessed is the number of lessons read from the corpus.
	LessonsProcessed int `json:"lessons"`

	// ChunksIndexed is the number of records upserted into the collection.
	ChunksIndexed int `json:"chunks"`

	// Collection is the name of the collection that was rebuilt.
	Collection string `json:"collection"`
}
