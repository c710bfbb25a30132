package driving

import (
	"context"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
)

// Assistant answers free-text questions grounded in the lesson corpus.
type Assistant interface {
	// Answer embeds the question in query mode, retrieves the most similar
	// lesson chunks, and generates a grounded answer with citations.
	//
	// An empty or whitespace-only question fails with domain.ErrInvalidInput
	// before any network call. When retrieval fails the pipeline degrades to
	// generating without context; only when generation itself also fails is
	// the returned Answer the documented fallback message. Either way the
	// result carries Degraded=true so surfaces can indicate reduced
	// confidence. History beyond the most recent turns is dropped.
	Answer(ctx context.Context, question string, history []domain.ChatTurn) (domain.Answer, error)
}
