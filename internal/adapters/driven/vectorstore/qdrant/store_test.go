package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
)

// fakeQdrant simulates the subset of the Qdrant REST API the store uses.
type fakeQdrant struct {
	collections map[string]vectorsConfig
	points      map[string]map[uint64]point
	upsertCalls int
	deleted     []string
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{
		collections: make(map[string]vectorsConfig),
		points:      make(map[string]map[uint64]point),
	}
}

func (f *fakeQdrant) handler(w http.ResponseWriter, r *http.Request) {
	var name string
	switch {
	case r.Method == http.MethodGet:
		fmt.Sscanf(r.URL.Path, "/collections/%s", &name)
		cfg, ok := f.collections[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var info collectionInfo
		info.Result.Config.Params.Vectors = cfg
		_ = json.NewEncoder(w).Encode(info)

	case r.Method == http.MethodDelete:
		fmt.Sscanf(r.URL.Path, "/collections/%s", &name)
		delete(f.collections, name)
		delete(f.points, name)
		f.deleted = append(f.deleted, name)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && r.URL.Query().Get("wait") == "true":
		fmt.Sscanf(r.URL.Path, "/collections/%s/points", &name)
		name = name[:len(name)-len("/points")]
		if _, ok := f.collections[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req struct {
			Points []point `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.upsertCalls++
		for _, p := range req.Points {
			f.points[name][p.ID] = p
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut:
		fmt.Sscanf(r.URL.Path, "/collections/%s", &name)
		var req struct {
			Vectors vectorsConfig `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.collections[name] = req.Vectors
		f.points[name] = make(map[uint64]point)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost:
		fmt.Sscanf(r.URL.Path, "/collections/%s/points/search", &name)
		name = name[:len(name)-len("/points/search")]
		if _, ok := f.collections[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req searchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		var resp searchResponse
		for id, p := range f.points[name] {
			// Score by first vector component, a stand-in for similarity.
			score := float64(p.Vector[0])
			if score < req.ScoreThreshold {
				continue
			}
			resp.Result = append(resp.Result, struct {
				ID      uint64         `json:"id"`
				Score   float64        `json:"score"`
				Payload domain.Payload `json:"payload"`
			}{ID: id, Score: score, Payload: p.Payload})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func newTestStore(t *testing.T) (*Store, *fakeQdrant) {
	t.Helper()
	fake := newFakeQdrant()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	return NewStore(Config{BaseURL: srv.URL, Timeout: time.Second}), fake
}

func schema(name string, dims int) domain.CollectionSchema {
	return domain.CollectionSchema{Name: name, Dimensions: dims, Distance: domain.DistanceCosine}
}

func TestEnsureCollection_CreatesWhenAbsent(t *testing.T) {
	store, fake := newTestStore(t)

	err := store.EnsureCollection(context.Background(), schema("lessons", 1024))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, ok := fake.collections["lessons"]
	if !ok {
		t.Fatal("expected collection to be created")
	}
	if cfg.Size != 1024 || cfg.Distance != "Cosine" {
		t.Errorf("unexpected schema: %+v", cfg)
	}
}

func TestEnsureCollection_NoOpWhenMatching(t *testing.T) {
	store, fake := newTestStore(t)

	ctx := context.Background()
	if err := store.EnsureCollection(ctx, schema("lessons", 1024)); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := store.EnsureCollection(ctx, schema("lessons", 1024)); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if len(fake.deleted) != 0 {
		t.Error("matching collection must not be recreated")
	}
}

func TestEnsureCollection_RecreatesOnDimensionMismatch(t *testing.T) {
	store, fake := newTestStore(t)

	ctx := context.Background()
	if err := store.EnsureCollection(ctx, schema("lessons", 768)); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := store.EnsureCollection(ctx, schema("lessons", 1024)); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if len(fake.deleted) != 1 {
		t.Fatal("expected stale collection to be destroyed")
	}
	if fake.collections["lessons"].Size != 1024 {
		t.Errorf("expected recreated with 1024 dims, got %d", fake.collections["lessons"].Size)
	}
}

func TestEnsureCollection_RejectsNonPositiveDimensions(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.EnsureCollection(context.Background(), schema("lessons", 0))
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestUpsert_SplitsIntoBatches(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()
	if err := store.EnsureCollection(ctx, schema("lessons", 2)); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	records := make([]domain.Record, UpsertBatchSize+10)
	for i := range records {
		records[i] = domain.Record{ID: uint64(i), Vector: []float32{0.5, 0.5}}
	}
	if err := store.Upsert(ctx, "lessons", records); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if fake.upsertCalls != 2 {
		t.Errorf("expected 2 upsert batches, got %d", fake.upsertCalls)
	}
	if len(fake.points["lessons"]) != len(records) {
		t.Errorf("expected %d points stored, got %d", len(records), len(fake.points["lessons"]))
	}
}

func TestUpsert_OverwritesByID(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()
	if err := store.EnsureCollection(ctx, schema("lessons", 2)); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	first := []domain.Record{{ID: 1, Vector: []float32{0.1, 0.1}, Payload: domain.Payload{Title: "old"}}}
	second := []domain.Record{{ID: 1, Vector: []float32{0.9, 0.9}, Payload: domain.Payload{Title: "new"}}}
	if err := store.Upsert(ctx, "lessons", first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.Upsert(ctx, "lessons", second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if len(fake.points["lessons"]) != 1 {
		t.Fatalf("expected upsert to overwrite, got %d points", len(fake.points["lessons"]))
	}
	if fake.points["lessons"][1].Payload.Title != "new" {
		t.Error("expected payload to be overwritten")
	}
}

func TestUpsert_MissingCollection(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Upsert(context.Background(), "missing", []domain.Record{{ID: 1, Vector: []float32{1}}})
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected collection not found, got %v", err)
	}
}

func TestSearch_AppliesThreshold(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	if err := store.EnsureCollection(ctx, schema("lessons", 2)); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	records := []domain.Record{
		{ID: 1, Vector: []float32{0.9, 0}, Payload: domain.Payload{LessonID: "a"}},
		{ID: 2, Vector: []float32{0.5, 0}, Payload: domain.Payload{LessonID: "b"}},
	}
	if err := store.Upsert(ctx, "lessons", records); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	hits, err := store.Search(ctx, "lessons", []float32{1, 0}, 5, 0.7)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit above threshold, got %d", len(hits))
	}
	if hits[0].Payload.LessonID != "a" {
		t.Errorf("unexpected hit: %+v", hits[0])
	}
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	if err := store.EnsureCollection(ctx, schema("lessons", 2)); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	hits, err := store.Search(ctx, "lessons", []float32{1, 0}, 5, 0.99)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestSearch_MissingCollection(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Search(context.Background(), "missing", []float32{1, 0}, 5, 0)
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected collection not found, got %v", err)
	}
}

func TestStore_UnreachableHost(t *testing.T) {
	store := NewStore(Config{BaseURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond})

	err := store.EnsureCollection(context.Background(), schema("lessons", 8))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}
