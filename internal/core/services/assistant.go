package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driving"
	"github.com/brightpath-labs/mentor-cli/internal/fallback"
	"github.com/brightpath-labs/mentor-cli/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.Assistant = (*AssistantService)(nil)

// Retrieval defaults.
const (
	DefaultTopK            = 5
	DefaultMinScore        = 0.7
	DefaultMaxContextChars = 6000

	// maxHistoryTurns bounds the conversation history forwarded to the
	// generator; older turns are dropped.
	maxHistoryTurns = 6
)

// builtinFallbackMessage is used when even the prompt store cannot be read.
const builtinFallbackMessage = "The course assistant is unavailable right now. Please try again shortly."

// AssistantService answers questions grounded in retrieved lesson chunks.
type AssistantService struct {
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	generator  driven.Generator
	prompts    driven.PromptStore
	collection string

	topK            int
	minScore        float64
	maxContextChars int

	embedPolicy    *fallback.Policy
	searchPolicy   *fallback.Policy
	generatePolicy *fallback.Policy
}

// AssistantOption configures an AssistantService.
type AssistantOption func(*AssistantService)

// WithTopK overrides the number of chunks retrieved per question.
func WithTopK(k int) AssistantOption {
	return func(s *AssistantService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithMinScore overrides the similarity threshold below which hits are
// discarded rather than passed to the generator.
func WithMinScore(score float64) AssistantOption {
	return func(s *AssistantService) {
		s.minScore = score
	}
}

// WithMaxContextChars overrides the context character budget.
func WithMaxContextChars(n int) AssistantOption {
	return func(s *AssistantService) {
		if n > 0 {
			s.maxContextChars = n
		}
	}
}

// NewAssistantService creates a new retrieval pipeline over the given ports.
func NewAssistantService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	generator driven.Generator,
	prompts driven.PromptStore,
	collection string,
	opts ...AssistantOption,
) *AssistantService {
	s := &AssistantService{
		embedder:        embedder,
		store:           store,
		generator:       generator,
		prompts:         prompts,
		collection:      collection,
		topK:            DefaultTopK,
		minScore:        DefaultMinScore,
		maxContextChars: DefaultMaxContextChars,
		embedPolicy:     fallback.New(fallback.EmbedTimeout),
		searchPolicy:    fallback.New(fallback.SearchTimeout),
		generatePolicy:  fallback.New(fallback.GenerateTimeout),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs the retrieval pipeline for one question.
//
// Retrieval failures degrade to generating without context; only when
// generation itself also fails does the answer fall back to the
// documented unavailable message. Neither case is an error to the
// caller - the Degraded flag carries the reduced-confidence signal.
func (s *AssistantService) Answer(ctx context.Context, question string, history []domain.ChatTurn) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}

	logger.Section("Answer")
	logger.Debug("Question: %q, history: %d turns", question, len(history))

	hits, degraded := s.retrieve(ctx, question)
	contextText, citations := s.assembleContext(hits)
	logger.Debug("Context: %d chars from %d hits, %d citations", len(contextText), len(hits), len(citations))

	reply, err := s.generate(ctx, question, contextText, history)
	if err != nil {
		logger.Warn("Generation failed, returning fallback message: %v", err)
		return domain.Answer{
			Text:     s.fallbackMessage(),
			Degraded: true,
		}, nil
	}

	return domain.Answer{
		Text:      reply,
		Citations: citations,
		Degraded:  degraded,
	}, nil
}

// retrieve embeds the question and searches the collection. Failures
// are logged and reported as degraded, never surfaced to the caller:
// an answer without retrieval beats no answer.
func (s *AssistantService) retrieve(ctx context.Context, question string) ([]domain.SearchHit, bool) {
	vector, err := fallback.Call(ctx, s.embedPolicy, "embed query",
		func(ctx context.Context) ([]float32, error) {
			return s.embedder.EmbedQuery(ctx, question)
		})
	if err != nil {
		logger.Warn("Query embedding failed, answering without context: %v", err)
		return nil, true
	}

	hits, err := fallback.Call(ctx, s.searchPolicy, "search",
		func(ctx context.Context) ([]domain.SearchHit, error) {
			return s.store.Search(ctx, s.collection, vector, s.topK, s.minScore)
		})
	if err != nil {
		logger.Warn("Search failed, answering without context: %v", err)
		return nil, true
	}
	return hits, false
}

// assembleContext renders hits into numbered source blocks within the
// character budget, dropping the lowest-scoring hits first. Citations
// cover only the hits that made it into the context, deduplicated by
// lesson, in first-appearance order.
func (s *AssistantService) assembleContext(hits []domain.SearchHit) (string, []domain.Citation) {
	if len(hits) == 0 {
		return "", nil
	}

	var blocks []string
	var citations []domain.Citation
	cited := make(map[string]bool)
	used := 0

	// Hits arrive in descending score order; the budget cuts the tail.
	for i, hit := range hits {
		block := fmt.Sprintf("[Source %d: %s]\n%s", i+1, hit.Payload.Title, hit.Payload.Content)
		if used+len(block) > s.maxContextChars && len(blocks) > 0 {
			logger.Debug("Context budget reached, dropping %d lower-scoring hits", len(hits)-i)
			break
		}
		blocks = append(blocks, block)
		used += len(block)

		if !cited[hit.Payload.LessonID] {
			cited[hit.Payload.LessonID] = true
			citations = append(citations, domain.Citation{
				Title:    hit.Payload.Title,
				LessonID: hit.Payload.LessonID,
			})
		}
	}

	return strings.Join(blocks, "\n\n"), citations
}

// generate calls the language model with the tutor persona, truncated
// history, assembled context and the question.
func (s *AssistantService) generate(ctx context.Context, question, contextText string, history []domain.ChatTurn) (string, error) {
	var messages []driven.ChatMessage

	system, err := s.prompts.Load(driven.PromptTutorSystem)
	if err != nil {
		logger.Warn("Tutor prompt unavailable, generating without persona: %v", err)
	} else {
		messages = append(messages, driven.ChatMessage{Role: "system", Content: system})
	}

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, turn := range history {
		messages = append(messages, driven.ChatMessage{Role: turn.Role, Content: turn.Content})
	}

	messages = append(messages, driven.ChatMessage{Role: "user", Content: userMessage(question, contextText)})

	return fallback.Call(ctx, s.generatePolicy, "generate",
		func(ctx context.Context) (string, error) {
			return s.generator.Chat(ctx, messages, driven.ChatOptions{})
		})
}

// userMessage renders the final user turn: context first, then the
// question, with an explicit note when no excerpts were retrieved.
func userMessage(question, contextText string) string {
	if contextText == "" {
		return fmt.Sprintf("No course excerpts were retrieved for this question. "+
			"If you cannot answer from the conversation so far, say so.\n\nQuestion: %s", question)
	}
	return fmt.Sprintf("Course excerpts:\n\n%s\n\nQuestion: %s", contextText, question)
}

// fallbackMessage loads the documented unavailable message, falling
// back to the built-in text if even the prompt store fails.
func (s *AssistantService) fallbackMessage() string {
	msg, err := s.prompts.Load(driven.PromptFallbackMessage)
	if err != nil || strings.TrimSpace(msg) == "" {
		return builtinFallbackMessage
	}
	return msg
}
