package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brightpath-labs/mentor-cli/internal/chunker"
	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driving"
	"github.com/brightpath-labs/mentor-cli/internal/fallback"
	"github.com/brightpath-labs/mentor-cli/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// Indexing defaults. Batch size tracks the smallest provider limit
// (Voyage accepts at most 96 texts per request).
const (
	DefaultEmbedBatchSize = 96
	DefaultEmbedWorkers   = 4
)

// IndexerService rebuilds the vector collection from the lesson corpus.
type IndexerService struct {
	lessons    driven.LessonStore
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	splitter   *chunker.Splitter
	collection string

	batchSize   int
	workers     int
	embedPolicy *fallback.Policy
}

// IndexerOption configures an IndexerService.
type IndexerOption func(*IndexerService)

// WithEmbedBatchSize overrides the number of chunk texts sent per
// embedding request.
func WithEmbedBatchSize(n int) IndexerOption {
	return func(s *IndexerService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithEmbedWorkers overrides the number of concurrent embedding requests.
func WithEmbedWorkers(n int) IndexerOption {
	return func(s *IndexerService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewIndexerService creates a new indexing pipeline over the given ports.
func NewIndexerService(
	lessons driven.LessonStore,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	splitter *chunker.Splitter,
	collection string,
	opts ...IndexerOption,
) *IndexerService {
	s := &IndexerService{
		lessons:     lessons,
		embedder:    embedder,
		store:       store,
		splitter:    splitter,
		collection:  collection,
		batchSize:   DefaultEmbedBatchSize,
		workers:     DefaultEmbedWorkers,
		embedPolicy: fallback.New(fallback.EmbedTimeout),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// chunkJob pairs a chunk with its source lesson for payload assembly.
type chunkJob struct {
	chunk  domain.Chunk
	lesson domain.Lesson
}

// Reindex rebuilds the collection from scratch. Any failure aborts the
// run with an error; a partial run is safe to retry because upserts are
// keyed by deterministic chunk IDs.
func (s *IndexerService) Reindex(ctx context.Context) (domain.IndexReport, error) {
	logger.Section("Reindex")

	schema := domain.CollectionSchema{
		Name:       s.collection,
		Dimensions: s.embedder.Dimensions(),
		Distance:   domain.DistanceCosine,
	}
	if err := s.store.EnsureCollection(ctx, schema); err != nil {
		return domain.IndexReport{}, fmt.Errorf("ensure collection %q: %w", s.collection, err)
	}
	logger.Debug("Collection %q ready (%d dimensions, %s)", schema.Name, schema.Dimensions, schema.Distance)

	lessons, err := s.lessons.List(ctx)
	if err != nil {
		return domain.IndexReport{}, fmt.Errorf("list lessons: %w", err)
	}
	logger.Info("Indexing %d lessons with model %s", len(lessons), s.embedder.ModelName())

	var jobs []chunkJob
	for _, lesson := range lessons {
		for _, chunk := range s.splitter.Chunk(lesson) {
			jobs = append(jobs, chunkJob{chunk: chunk, lesson: lesson})
		}
	}

	report := domain.IndexReport{
		LessonsProcessed: len(lessons),
		Collection:       s.collection,
	}
	if len(jobs) == 0 {
		logger.Debug("Corpus produced no chunks, nothing to upsert")
		return report, nil
	}

	records, err := s.embedAll(ctx, jobs)
	if err != nil {
		return domain.IndexReport{}, err
	}

	if err := s.store.Upsert(ctx, s.collection, records); err != nil {
		return domain.IndexReport{}, fmt.Errorf("upsert %d records: %w", len(records), err)
	}

	report.ChunksIndexed = len(records)
	logger.Info("Indexed %d chunks from %d lessons", report.ChunksIndexed, report.LessonsProcessed)
	return report, nil
}

// embedAll embeds every chunk in fixed-size batches with bounded
// concurrency, preserving chunk order in the returned records.
func (s *IndexerService) embedAll(ctx context.Context, jobs []chunkJob) ([]domain.Record, error) {
	type batch struct {
		start int
		jobs  []chunkJob
	}

	var batches []batch
	for start := 0; start < len(jobs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		batches = append(batches, batch{start: start, jobs: jobs[start:end]})
	}
	logger.Debug("Embedding %d chunks in %d batches (%d workers)", len(jobs), len(batches), s.workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records := make([]domain.Record, len(jobs))
	work := make(chan batch)
	errCh := make(chan error, s.workers)
	indexedAt := time.Now().UTC()

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range work {
				texts := make([]string, len(b.jobs))
				for i, j := range b.jobs {
					texts[i] = j.chunk.Text
				}

				vectors, err := fallback.Call(ctx, s.embedPolicy, "embed documents",
					func(ctx context.Context) ([][]float32, error) {
						return s.embedder.EmbedDocuments(ctx, texts)
					})
				if err != nil {
					errCh <- fmt.Errorf("embed batch at chunk %d: %w", b.start, err)
					cancel()
					return
				}

				for i, j := range b.jobs {
					records[b.start+i] = domain.Record{
						ID:     j.chunk.PointID(),
						Vector: vectors[i],
						Payload: domain.Payload{
							LessonID:  j.lesson.ID,
							ModuleID:  j.lesson.ModuleID,
							Title:     j.lesson.Title,
							Content:   j.chunk.Text,
							Position:  j.chunk.Position,
							CreatedAt: indexedAt,
						},
					}
				}
			}
		}()
	}

	for _, b := range batches {
		select {
		case work <- b:
		case <-ctx.Done():
		}
	}
	close(work)
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("embedding cancelled: %w", err)
	}
	return records, nil
}
