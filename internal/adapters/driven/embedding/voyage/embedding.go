// Package voyage provides an embedding service adapter using the Voyage AI
// API. Voyage distinguishes document and query embeddings natively through
// the input_type request field.
package voyage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.voyageai.com/v1"
	DefaultModel   = "voyage-3"
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest number of texts sent in one request.
	MaxBatchSize = 96

	// maxInputChars is the deterministic end-truncation limit per text.
	maxInputChars = 8000

	// Conservative request rate, well below Voyage's published limits.
	requestsPerSecond = 3.0
	burstSize         = 6
)

// Model dimensions for Voyage embedding models.
var modelDimensions = map[string]int{
	"voyage-3":       1024,
	"voyage-3-lite":  512,
	"voyage-3-large": 1024,
}

// Input types understood by the Voyage API.
const (
	inputTypeDocument = "document"
	inputTypeQuery    = "query"
)

// Config holds configuration for the Voyage embedding service.
type Config struct {
	// APIKey is the Voyage API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.voyageai.com/v1).
	BaseURL string

	// Model is the embedding model to use (default: voyage-3).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	Dimensions int
}

// EmbeddingService generates embeddings using the Voyage AI API.
type EmbeddingService struct {
	client     *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// embeddingRequest is the Voyage API request format.
type embeddingRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type"`
}

// embeddingResponse is the Voyage API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Detail string `json:"detail,omitempty"`
}

// NewEmbeddingService creates a new Voyage embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("voyage: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = modelDimensions[cfg.Model]
		if !ok {
			dimensions = 1024
		}
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// EmbedDocuments generates indexing-time embeddings for a batch of texts.
func (s *EmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return s.embed(ctx, texts, inputTypeDocument)
}

// EmbedQuery generates a search-time embedding for a question.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embed(ctx, []string{text}, inputTypeQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("voyage: no embedding returned: %w", domain.ErrProviderUnavailable)
	}
	return vectors[0], nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("voyage: empty input batch: %w", domain.ErrInvalidInput)
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("voyage: batch of %d exceeds the %d-text limit: %w",
			len(texts), MaxBatchSize, domain.ErrInvalidInput)
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("voyage: empty text at index %d: %w", i, domain.ErrInvalidInput)
		}
		input[i] = truncate(t)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("voyage: %w", err)
	}

	reqBody := embeddingRequest{
		Model:     s.model,
		Input:     input,
		InputType: inputType,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voyage: send request: %w: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voyage: read response: %w: %w", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &domain.RateLimitError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("voyage: status %d: %w", resp.StatusCode, domain.ErrProviderUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		var embedResp embeddingResponse
		detail := ""
		if json.Unmarshal(body, &embedResp) == nil {
			detail = embedResp.Detail
		}
		return nil, fmt.Errorf("voyage: status %d %s: %w", resp.StatusCode, detail, domain.ErrInvalidInput)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("voyage: decode response: %w: %w", domain.ErrProviderUnavailable, err)
	}
	if len(embedResp.Data) != len(texts) {
		return nil, fmt.Errorf("voyage: %d embeddings for %d texts: %w",
			len(embedResp.Data), len(texts), domain.ErrProviderUnavailable)
	}

	// Convert float64 to float32 and order by index.
	embeddings := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("voyage: embedding index %d out of range: %w",
				data.Index, domain.ErrProviderUnavailable)
		}
		embedding := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			embedding[i] = float32(v)
		}
		embeddings[data.Index] = embedding
	}

	for i, e := range embeddings {
		if len(e) != s.dimensions {
			return nil, fmt.Errorf("voyage: vector %d has %d dimensions, expected %d: %w",
				i, len(e), s.dimensions, domain.ErrDimensionMismatch)
		}
	}

	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable with a minimal query embedding.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.EmbedQuery(ctx, "ping")
	return err
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// truncate enforces the per-text input limit, cutting at the end on a rune
// boundary.
func truncate(text string) string {
	if len(text) <= maxInputChars {
		return text
	}
	cut := maxInputChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// retryAfter parses the Retry-After header, zero when absent or malformed.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
