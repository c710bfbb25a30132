package driving

import (
	"context"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
)

// Indexer rebuilds the vector collection from the lesson corpus.
type Indexer interface {
	// Reindex chunks every lesson, embeds the chunks in document mode and
	// upserts them into a freshly ensured collection. The operation is
	// idempotent: a re-run fully replaces prior content. A failure partway
	// through is reported as a failed reindex, never silently degraded;
	// the collection may be left inconsistent and the run retried from
	// scratch.
	Reindex(ctx context.Context) (domain.IndexReport, error)
}
