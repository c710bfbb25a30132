package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing. It
// returns a fixed-size vector derived from the input length so tests
// can assert ordering without caring about values.
type mockEmbedder struct {
	mu         sync.Mutex
	dims       int
	docCalls   [][]string
	queryCalls []string
	docErr     error
	queryErr   error
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) vector(seed int) []float32 {
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32(seed)
	}
	return v
}

func (m *mockEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docErr != nil {
		return nil, m.docErr
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty batch: %w", domain.ErrInvalidInput)
	}
	m.docCalls = append(m.docCalls, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(len(t))
	}
	return out, nil
}

func (m *mockEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	m.queryCalls = append(m.queryCalls, text)
	return m.vector(len(text)), nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	mu          sync.Mutex
	schema      domain.CollectionSchema
	upserted    []domain.Record
	upsertCalls int
	hits        []domain.SearchHit
	ensureErr   error
	upsertErr   error
	searchErr   error
	searches    int
}

func (m *mockVectorStore) EnsureCollection(_ context.Context, schema domain.CollectionSchema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ensureErr != nil {
		return m.ensureErr
	}
	m.schema = schema
	return nil
}

func (m *mockVectorStore) Upsert(_ context.Context, _ string, records []domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertCalls++
	m.upserted = append(m.upserted, records...)
	return nil
}

func (m *mockVectorStore) Search(_ context.Context, _ string, _ []float32, topK int, minScore float64) ([]domain.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var out []domain.SearchHit
	for _, h := range m.hits {
		if h.Score >= minScore && len(out) < topK {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockVectorStore) Close() error { return nil }

// mockGenerator implements driven.Generator for testing.
type mockGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]driven.ChatMessage
}

func (m *mockGenerator) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messages)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGenerator) ModelName() string            { return "mock-llm" }
func (m *mockGenerator) Ping(_ context.Context) error { return nil }
func (m *mockGenerator) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return p, nil
}

func defaultMockPrompts() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptTutorSystem:     "You are a tutor. Answer only from the excerpts.",
		driven.PromptFallbackMessage: "The assistant is offline, try later.",
	}}
}
