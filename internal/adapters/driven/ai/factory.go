// Package ai provides factory functions for creating provider adapters
// from configuration.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/brightpath-labs/mentor-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/brightpath-labs/mentor-cli/internal/adapters/driven/embedding/ollama"
	voyageembed "github.com/brightpath-labs/mentor-cli/internal/adapters/driven/embedding/voyage"
	anthropicllm "github.com/brightpath-labs/mentor-cli/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/brightpath-labs/mentor-cli/internal/adapters/driven/llm/openai"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for connectivity validation.
const pingTimeout = 5 * time.Second

// NewEmbeddingService creates the embedding adapter the settings select.
func NewEmbeddingService(cfg file.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "voyage":
		return voyageembed.NewEmbeddingService(voyageembed.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// NewGenerator creates the answer generator the settings select.
func NewGenerator(cfg file.LLMSettings) (driven.Generator, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropicllm.NewGenerator(anthropicllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "openai":
		return openaillm.NewGenerator(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// pinger is the connectivity check both provider kinds share.
type pinger interface {
	Ping(ctx context.Context) error
}

// ValidateConnectivity pings a freshly created service with a bounded
// timeout, so a dead provider is reported at startup rather than on
// the first user request.
func ValidateConnectivity(ctx context.Context, name string, svc pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s unreachable: %w", name, err)
	}
	return nil
}
