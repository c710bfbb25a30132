// Package cli wires cobra commands over the core services: indexing,
// one-shot asking, the chat TUI and the HTTP server.
package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brightpath-labs/mentor-cli/internal/adapters/driven/ai"
	"github.com/brightpath-labs/mentor-cli/internal/adapters/driven/config/file"
	"github.com/brightpath-labs/mentor-cli/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/brightpath-labs/mentor-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/brightpath-labs/mentor-cli/internal/adapters/driven/vectorstore/qdrant"
	"github.com/brightpath-labs/mentor-cli/internal/chunker"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driving"
	"github.com/brightpath-labs/mentor-cli/internal/core/services"
	"github.com/brightpath-labs/mentor-cli/internal/logger"
)

// version is set from main at build time.
var version = "dev"

// Global flags.
var (
	configPath string
	verbose    bool
)

// Services used by the commands. Built lazily from configuration;
// tests inject stubs instead.
var (
	appSettings      *file.Settings
	lessonStore      driven.LessonStore
	indexerService   driving.Indexer
	assistantService driving.Assistant
	promptStore      driven.PromptStore
	embeddingService driven.EmbeddingService
	generatorService driven.Generator

	closers []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "mentor",
	Short: "Course assistant for your lesson library",
	Long: `Mentor indexes your course lessons into a vector collection and
answers student questions grounded in the retrieved material, with
citations back to the lessons used.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.mentor/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to stderr")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// loadSettings loads and validates configuration once per process.
func loadSettings() (*file.Settings, error) {
	if appSettings != nil {
		return appSettings, nil
	}
	settings, err := file.LoadSettings(configPath)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	appSettings = settings
	return appSettings, nil
}

// ensureLessonStore opens the SQLite corpus.
func ensureLessonStore() (driven.LessonStore, error) {
	if lessonStore != nil {
		return lessonStore, nil
	}
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open lesson store: %w", err)
	}
	lessonStore = store
	closers = append(closers, store)
	return lessonStore, nil
}

// ensureEmbedding builds the configured embedding adapter.
func ensureEmbedding() (driven.EmbeddingService, error) {
	if embeddingService != nil {
		return embeddingService, nil
	}
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	svc, err := ai.NewEmbeddingService(settings.Embedding)
	if err != nil {
		return nil, err
	}
	embeddingService = svc
	closers = append(closers, svc)
	return embeddingService, nil
}

// ensureGenerator builds the configured LLM adapter.
func ensureGenerator() (driven.Generator, error) {
	if generatorService != nil {
		return generatorService, nil
	}
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	gen, err := ai.NewGenerator(settings.LLM)
	if err != nil {
		return nil, err
	}
	generatorService = gen
	closers = append(closers, gen)
	return generatorService, nil
}

// ensurePrompts builds the prompt store next to the config file.
func ensurePrompts() (driven.PromptStore, error) {
	if promptStore != nil {
		return promptStore, nil
	}
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	dir := ""
	if settings.DataDir != "" {
		dir = filepath.Join(settings.DataDir, "prompts")
	}
	store, err := file.NewPromptStore(dir)
	if err != nil {
		return nil, err
	}
	promptStore = store
	return promptStore, nil
}

// ensureIndexer wires the indexing pipeline.
func ensureIndexer() (driving.Indexer, error) {
	if indexerService != nil {
		return indexerService, nil
	}
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	lessons, err := ensureLessonStore()
	if err != nil {
		return nil, err
	}
	embedder, err := ensureEmbedding()
	if err != nil {
		return nil, err
	}
	store := newVectorStore(settings)

	indexerService = services.NewIndexerService(
		lessons, embedder, store, chunker.New(), settings.VectorStore.Collection)
	return indexerService, nil
}

// ensureAssistant wires the retrieval pipeline.
func ensureAssistant() (driving.Assistant, error) {
	if assistantService != nil {
		return assistantService, nil
	}
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	embedder, err := ensureEmbedding()
	if err != nil {
		return nil, err
	}
	generator, err := ensureGenerator()
	if err != nil {
		return nil, err
	}
	prompts, err := ensurePrompts()
	if err != nil {
		return nil, err
	}
	store := newVectorStore(settings)

	assistantService = services.NewAssistantService(
		embedder, store, generator, prompts, settings.VectorStore.Collection,
		services.WithTopK(settings.Retrieval.TopK),
		services.WithMinScore(settings.Retrieval.MinScore),
		services.WithMaxContextChars(settings.Retrieval.MaxContextChars),
	)
	return assistantService, nil
}

// vectorStore is shared between the indexer and assistant so the
// in-memory backend indexes into the collection the assistant queries.
var vectorStore driven.VectorStore

// newVectorStore builds the configured vector store backend.
func newVectorStore(settings *file.Settings) driven.VectorStore {
	if vectorStore != nil {
		return vectorStore
	}
	switch settings.VectorStore.Provider {
	case "memory":
		vectorStore = vectormem.NewStore()
	default:
		vectorStore = qdrant.NewStore(qdrant.Config{
			BaseURL: settings.VectorStore.URL,
			APIKey:  settings.VectorStore.APIKey,
		})
	}
	closers = append(closers, vectorStore)
	return vectorStore
}

// closeServices releases everything the ensure* helpers opened.
func closeServices() {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	closers = nil
	if err := errors.Join(errs...); err != nil {
		logger.Warn("Cleanup: %v", err)
	}
}
