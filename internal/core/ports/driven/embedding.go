package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Document and query embeddings are separate methods rather than a mode
// string: providers shape the request differently for each, and embedding a
// question in document mode silently degrades retrieval quality. Making the
// distinction part of the method set keeps that mistake unrepresentable.
//
// Implementations may include:
//   - Voyage AI (voyage-3, 1024 dimensions, native input_type support)
//   - Ollama (nomic-embed-text and friends, local)
type EmbeddingService interface {
	// EmbedDocuments generates indexing-time embeddings, one vector per
	// input, same order, all of Dimensions() length. An empty slice or an
	// empty element fails with domain.ErrInvalidInput before any network
	// call. Over-long inputs are truncated at the end, deterministically.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a search-time embedding for a user question.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1024).
	// Every collection this service feeds must be declared with this value.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
