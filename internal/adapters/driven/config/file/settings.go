package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultVectorStoreURL  = "http://localhost:6333"
	DefaultCollection      = "lessons"
	DefaultTopK            = 5
	DefaultMinScore        = 0.7
	DefaultMaxContextChars = 6000
	DefaultServerAddr      = ":8080"
)

// EmbeddingSettings selects and configures the embedding provider.
type EmbeddingSettings struct {
	// Provider is "voyage" or "ollama".
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	// Secrets never live in the config file itself.
	APIKeyEnv string `toml:"api_key_env"`

	// APIKey is resolved from APIKeyEnv at load time.
	APIKey string `toml:"-"`
}

// VectorStoreSettings configures the vector store backend.
type VectorStoreSettings struct {
	// Provider is "qdrant" or "memory". The memory backend keeps
	// vectors in-process; useful for development, lost on exit.
	Provider   string `toml:"provider"`
	URL        string `toml:"url"`
	Collection string `toml:"collection"`
	APIKeyEnv  string `toml:"api_key_env"`
	APIKey     string `toml:"-"`
}

// LLMSettings selects and configures the answer generator.
type LLMSettings struct {
	// Provider is "anthropic" or "openai".
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	APIKeyEnv string `toml:"api_key_env"`
	APIKey    string `toml:"-"`
}

// RetrievalSettings tunes the retrieval pipeline.
type RetrievalSettings struct {
	TopK            int     `toml:"top_k"`
	MinScore        float64 `toml:"min_score"`
	MaxContextChars int     `toml:"max_context_chars"`
}

// ServerSettings configures the HTTP serving surface.
type ServerSettings struct {
	Addr string `toml:"addr"`
}

// Settings is the full application configuration, loaded from a TOML
// file with defaults applied for anything unset.
type Settings struct {
	Embedding   EmbeddingSettings   `toml:"embedding"`
	VectorStore VectorStoreSettings `toml:"vectorstore"`
	LLM         LLMSettings         `toml:"llm"`
	Retrieval   RetrievalSettings   `toml:"retrieval"`
	Server      ServerSettings      `toml:"server"`

	// DataDir holds the SQLite database and prompt files.
	// Defaults to ~/.mentor/data.
	DataDir string `toml:"data_dir"`

	path string
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Embedding: EmbeddingSettings{
			Provider:  "voyage",
			APIKeyEnv: "VOYAGE_API_KEY",
		},
		VectorStore: VectorStoreSettings{
			Provider:   "qdrant",
			URL:        DefaultVectorStoreURL,
			Collection: DefaultCollection,
			APIKeyEnv:  "QDRANT_API_KEY",
		},
		LLM: LLMSettings{
			Provider:  "anthropic",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Retrieval: RetrievalSettings{
			TopK:            DefaultTopK,
			MinScore:        DefaultMinScore,
			MaxContextChars: DefaultMaxContextChars,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// DefaultPath returns the default config file location, ~/.mentor/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".mentor", "config.toml"), nil
}

// LoadSettings reads the TOML config file at path. A missing file is
// not an error: defaults are returned so first runs work out of the
// box. Secrets named by *_env keys are resolved from the environment.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	s := DefaultSettings()
	s.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.resolveSecrets()
			return s, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	s.applyDefaults()
	s.resolveSecrets()
	return s, nil
}

// Save persists the settings to their file path with restricted
// permissions. Resolved secrets are never written.
func (s *Settings) Save() error {
	if s.path == "" {
		return fmt.Errorf("settings have no file path")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}

// Path returns the configuration file path.
func (s *Settings) Path() string {
	return s.path
}

// applyDefaults fills zero values left by a partial config file.
func (s *Settings) applyDefaults() {
	def := DefaultSettings()
	if s.Embedding.Provider == "" {
		s.Embedding.Provider = def.Embedding.Provider
	}
	if s.Embedding.APIKeyEnv == "" {
		s.Embedding.APIKeyEnv = def.Embedding.APIKeyEnv
	}
	if s.VectorStore.Provider == "" {
		s.VectorStore.Provider = def.VectorStore.Provider
	}
	if s.VectorStore.URL == "" {
		s.VectorStore.URL = def.VectorStore.URL
	}
	if s.VectorStore.Collection == "" {
		s.VectorStore.Collection = def.VectorStore.Collection
	}
	if s.LLM.Provider == "" {
		s.LLM.Provider = def.LLM.Provider
	}
	if s.LLM.APIKeyEnv == "" {
		s.LLM.APIKeyEnv = def.LLM.APIKeyEnv
	}
	if s.Retrieval.TopK == 0 {
		s.Retrieval.TopK = def.Retrieval.TopK
	}
	if s.Retrieval.MinScore == 0 {
		s.Retrieval.MinScore = def.Retrieval.MinScore
	}
	if s.Retrieval.MaxContextChars == 0 {
		s.Retrieval.MaxContextChars = def.Retrieval.MaxContextChars
	}
	if s.Server.Addr == "" {
		s.Server.Addr = def.Server.Addr
	}
}

// resolveSecrets reads API keys from the environment variables the
// config names.
func (s *Settings) resolveSecrets() {
	if s.Embedding.APIKeyEnv != "" {
		s.Embedding.APIKey = os.Getenv(s.Embedding.APIKeyEnv)
	}
	if s.VectorStore.APIKeyEnv != "" {
		s.VectorStore.APIKey = os.Getenv(s.VectorStore.APIKeyEnv)
	}
	if s.LLM.APIKeyEnv != "" {
		s.LLM.APIKey = os.Getenv(s.LLM.APIKeyEnv)
	}
}

// Validate checks the settings and reports every problem at once, so
// a misconfigured deployment fails at boot with the full list instead
// of one error per restart.
func (s *Settings) Validate() error {
	var problems []string

	switch s.Embedding.Provider {
	case "voyage":
		if s.Embedding.APIKey == "" {
			problems = append(problems, fmt.Sprintf("embedding: %s is not set", s.Embedding.APIKeyEnv))
		}
	case "ollama":
		// Local provider, no key required.
	default:
		problems = append(problems, fmt.Sprintf("embedding: unknown provider %q (want voyage or ollama)", s.Embedding.Provider))
	}

	switch s.LLM.Provider {
	case "anthropic":
		if s.LLM.APIKey == "" {
			problems = append(problems, fmt.Sprintf("llm: %s is not set", s.LLM.APIKeyEnv))
		}
	case "openai":
		// Key optional: compatible local servers accept none.
	default:
		problems = append(problems, fmt.Sprintf("llm: unknown provider %q (want anthropic or openai)", s.LLM.Provider))
	}

	switch s.VectorStore.Provider {
	case "qdrant":
		if s.VectorStore.URL == "" {
			problems = append(problems, "vectorstore: url is empty")
		}
	case "memory":
		// In-process backend, nothing to reach.
	default:
		problems = append(problems, fmt.Sprintf("vectorstore: unknown provider %q (want qdrant or memory)", s.VectorStore.Provider))
	}
	if s.VectorStore.Collection == "" {
		problems = append(problems, "vectorstore: collection is empty")
	}
	if s.Retrieval.TopK <= 0 {
		problems = append(problems, fmt.Sprintf("retrieval: top_k must be positive, got %d", s.Retrieval.TopK))
	}
	if s.Retrieval.MinScore < 0 || s.Retrieval.MinScore > 1 {
		problems = append(problems, fmt.Sprintf("retrieval: min_score must be in [0,1], got %g", s.Retrieval.MinScore))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
