package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "voyage", s.Embedding.Provider)
	assert.Equal(t, "anthropic", s.LLM.Provider)
	assert.Equal(t, DefaultVectorStoreURL, s.VectorStore.URL)
	assert.Equal(t, DefaultCollection, s.VectorStore.Collection)
	assert.Equal(t, DefaultTopK, s.Retrieval.TopK)
	assert.Equal(t, DefaultMinScore, s.Retrieval.MinScore)
	assert.Equal(t, path, s.Path())
}

func TestLoadSettings_PartialFileFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
[embedding]
provider = "ollama"
model = "nomic-embed-text"

[retrieval]
top_k = 8
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", s.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", s.Embedding.Model)
	assert.Equal(t, 8, s.Retrieval.TopK)
	// Unset sections keep defaults.
	assert.Equal(t, DefaultMinScore, s.Retrieval.MinScore)
	assert.Equal(t, "anthropic", s.LLM.Provider)
	assert.Equal(t, DefaultServerAddr, s.Server.Addr)
}

func TestLoadSettings_ResolvesSecretsFromEnv(t *testing.T) {
	path := writeConfig(t, `
[llm]
provider = "anthropic"
api_key_env = "MENTOR_TEST_LLM_KEY"
`)
	t.Setenv("MENTOR_TEST_LLM_KEY", "sk-test")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", s.LLM.APIKey)
}

func TestLoadSettings_MalformedTOML(t *testing.T) {
	path := writeConfig(t, `[embedding`)

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	s := DefaultSettings()
	s.Embedding.Provider = "bogus"
	s.LLM.Provider = "also-bogus"
	s.VectorStore.URL = ""
	s.Retrieval.TopK = 0
	s.Retrieval.MinScore = 1.5

	err := s.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "embedding: unknown provider")
	assert.Contains(t, msg, "llm: unknown provider")
	assert.Contains(t, msg, "vectorstore: url is empty")
	assert.Contains(t, msg, "top_k must be positive")
	assert.Contains(t, msg, "min_score must be in [0,1]")
}

func TestValidate_VoyageRequiresKey(t *testing.T) {
	s := DefaultSettings()
	s.Embedding.APIKey = ""
	s.LLM.Provider = "openai" // key optional

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VOYAGE_API_KEY is not set")
}

func TestValidate_LocalProvidersNeedNoKeys(t *testing.T) {
	s := DefaultSettings()
	s.Embedding.Provider = "ollama"
	s.LLM.Provider = "openai"

	assert.NoError(t, s.Validate())
}

func TestSave_RoundTripsWithoutSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	s.Embedding.Model = "voyage-3"
	s.Embedding.APIKey = "resolved-secret"
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "resolved-secret")

	loaded, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "voyage-3", loaded.Embedding.Model)
}
