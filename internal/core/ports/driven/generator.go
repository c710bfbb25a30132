package driven

import "context"

// Generator produces answer text from a language model.
//
// Implementations may include:
//   - Anthropic (Claude)
//   - OpenAI and OpenAI-compatible servers (vLLM, LM Studio, Ollama)
type Generator interface {
	// Chat conducts a conversation and returns the assistant's reply.
	// A "system" role message carries the fixed assistant persona.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures generation behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
