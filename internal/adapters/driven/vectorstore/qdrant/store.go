// Package qdrant provides a vector store adapter using the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driven"
	"github.com/brightpath-labs/mentor-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second

	// UpsertBatchSize bounds how many points go into one upsert request.
	UpsertBatchSize = 256
)

// Config holds connection details for a Qdrant server.
type Config struct {
	// BaseURL is the Qdrant REST endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey is sent in the api-key header when non-empty.
	APIKey string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a REST client to Qdrant.
type Store struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// vectorsConfig is the collection vector declaration.
type vectorsConfig struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// collectionInfo is the subset of the collection description we compare
// against the declared schema.
type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors vectorsConfig `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// point is the Qdrant wire representation of a record.
type point struct {
	ID      uint64         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload domain.Payload `json:"payload"`
}

// searchRequest is the points/search request format.
type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	WithPayload    bool      `json:"with_payload"`
	ScoreThreshold float64   `json:"score_threshold,omitempty"`
}

// searchResponse is the points/search response format.
type searchResponse struct {
	Result []struct {
		ID      uint64         `json:"id"`
		Score   float64        `json:"score"`
		Payload domain.Payload `json:"payload"`
	} `json:"result"`
}

// NewStore creates a new Qdrant store client.
func NewStore(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// EnsureCollection makes the collection exist with exactly the given schema.
// A collection with a different dimensionality or metric is destroyed and
// recreated; a matching one is left untouched.
func (s *Store) EnsureCollection(ctx context.Context, schema domain.CollectionSchema) error {
	if schema.Dimensions <= 0 {
		return fmt.Errorf("qdrant: dimensions must be positive: %w", domain.ErrDimensionMismatch)
	}

	existing, found, err := s.describeCollection(ctx, schema.Name)
	if err != nil {
		return err
	}

	if found {
		if existing.Size == schema.Dimensions && existing.Distance == string(schema.Distance) {
			logger.Debug("collection %s already matches (%d dims, %s)", schema.Name, schema.Dimensions, schema.Distance)
			return nil
		}
		logger.Warn("collection %s has %d dims/%s, recreating with %d dims/%s",
			schema.Name, existing.Size, existing.Distance, schema.Dimensions, schema.Distance)
		if err := s.deleteCollection(ctx, schema.Name); err != nil {
			return err
		}
	}

	return s.createCollection(ctx, schema)
}

// Upsert inserts or overwrites records by ID, in bounded batches.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.Record) error {
	for start := 0; start < len(records); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(records) {
			end = len(records)
		}

		points := make([]point, 0, end-start)
		for _, r := range records[start:end] {
			points = append(points, point{ID: r.ID, Vector: r.Vector, Payload: r.Payload})
		}

		url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.baseURL, collection)
		status, _, err := s.do(ctx, http.MethodPut, url, map[string]any{"points": points})
		if err != nil {
			return err
		}
		if status == http.StatusNotFound {
			return fmt.Errorf("qdrant: collection %s: %w", collection, domain.ErrCollectionNotFound)
		}
		if status >= 300 {
			return fmt.Errorf("qdrant: upsert status %d: %w", status, domain.ErrStoreUnavailable)
		}
		logger.Debug("upserted points %d-%d into %s", start, end-1, collection)
	}
	return nil
}

// Search returns at most topK hits with score >= minScore, best first.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, topK int, minScore float64) ([]domain.SearchHit, error) {
	if topK <= 0 {
		topK = 5
	}

	req := searchRequest{
		Vector:         vector,
		Limit:          topK,
		WithPayload:    true,
		ScoreThreshold: minScore,
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", s.baseURL, collection)
	status, body, err := s.do(ctx, http.MethodPost, url, req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("qdrant: collection %s: %w", collection, domain.ErrCollectionNotFound)
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant: search status %d: %w", status, domain.ErrStoreUnavailable)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("qdrant: decode search response: %w: %w", domain.ErrStoreUnavailable, err)
	}

	hits := make([]domain.SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		// The server-side threshold already applies, but a store that
		// ignores score_threshold must not leak sub-threshold hits.
		if r.Score < minScore {
			continue
		}
		hits = append(hits, domain.SearchHit{ID: r.ID, Score: r.Score, Payload: r.Payload})
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) describeCollection(ctx context.Context, name string) (vectorsConfig, bool, error) {
	url := fmt.Sprintf("%s/collections/%s", s.baseURL, name)
	status, body, err := s.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return vectorsConfig{}, false, err
	}
	if status == http.StatusNotFound {
		return vectorsConfig{}, false, nil
	}
	if status >= 300 {
		return vectorsConfig{}, false, fmt.Errorf("qdrant: describe status %d: %w", status, domain.ErrStoreUnavailable)
	}

	var info collectionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return vectorsConfig{}, false, fmt.Errorf("qdrant: decode collection info: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return info.Result.Config.Params.Vectors, true, nil
}

func (s *Store) createCollection(ctx context.Context, schema domain.CollectionSchema) error {
	body := map[string]any{
		"vectors": vectorsConfig{
			Size:     schema.Dimensions,
			Distance: string(schema.Distance),
		},
	}
	url := fmt.Sprintf("%s/collections/%s", s.baseURL, schema.Name)
	status, _, err := s.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: create collection status %d: %w", status, domain.ErrStoreUnavailable)
	}
	logger.Info("created collection %s (%d dims, %s)", schema.Name, schema.Dimensions, schema.Distance)
	return nil
}

func (s *Store) deleteCollection(ctx context.Context, name string) error {
	url := fmt.Sprintf("%s/collections/%s", s.baseURL, name)
	status, _, err := s.do(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	if status >= 300 && status != http.StatusNotFound {
		return fmt.Errorf("qdrant: delete collection status %d: %w", status, domain.ErrStoreUnavailable)
	}
	return nil
}

// do issues one request and returns the status code and body. Transport
// failures map to ErrStoreUnavailable.
func (s *Store) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant: %s %s: %w: %w", method, url, domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant: read response: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return resp.StatusCode, respBody, nil
}
