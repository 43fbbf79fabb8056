package rag

import (
	"context"
	"testing"

	"github.com/tahrir-ai/tahrir/internal/passage"
)

// recordingStore captures inserted passages and serves a scripted existence
// map.
type recordingStore struct {
	fakeStore
	existing map[string]bool
	inserted []passage.Passage
	deleted  []string
	flushed  bool
}

func (r *recordingStore) Insert(ctx context.Context, passages []passage.Passage) error {
	r.inserted = append(r.inserted, passages...)
	return nil
}

func (r *recordingStore) Exists(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = r.existing[id]
	}
	return out, nil
}

func (r *recordingStore) Delete(ctx context.Context, ids []string) error {
	r.deleted = append(r.deleted, ids...)
	return nil
}

func (r *recordingStore) Flush(ctx context.Context) error {
	r.flushed = true
	return nil
}

func indexFixture() []passage.Passage {
	return []passage.Passage{
		{ID: "p1", SourceID: "a", Text: "متن اول"},
		{ID: "p2", SourceID: "a", Text: "متن دوم"},
		{ID: "p3", SourceID: "b", Text: "متن سوم"},
	}
}

func TestIndexPassages_EmbedsAndInserts(t *testing.T) {
	store := &recordingStore{}
	embedder := &fakeEmbedder{}

	stats, err := IndexPassages(context.Background(), indexFixture(), embedder, store, nil, DefaultIndexOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Indexed != 3 {
		t.Errorf("expected 3 indexed, got %d", stats.Indexed)
	}
	if len(store.inserted) != 3 {
		t.Fatalf("expected 3 inserts, got %d", len(store.inserted))
	}
	for _, p := range store.inserted {
		if len(p.Embedding) == 0 {
			t.Errorf("passage %s inserted without embedding", p.ID)
		}
	}
	if !store.flushed {
		t.Error("expected a flush after indexing")
	}
}

func TestIndexPassages_SkipsExisting(t *testing.T) {
	store := &recordingStore{existing: map[string]bool{"p1": true, "p3": true}}
	embedder := &fakeEmbedder{}

	stats, err := IndexPassages(context.Background(), indexFixture(), embedder, store, nil, DefaultIndexOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", stats.Skipped)
	}
	if stats.Indexed != 1 {
		t.Errorf("expected 1 indexed, got %d", stats.Indexed)
	}
	if len(store.inserted) != 1 || store.inserted[0].ID != "p2" {
		t.Errorf("expected only p2 inserted, got %+v", store.inserted)
	}
}

func TestIndexPassages_ForceReindex(t *testing.T) {
	store := &recordingStore{existing: map[string]bool{"p1": true}}
	embedder := &fakeEmbedder{}

	opts := DefaultIndexOptions()
	opts.ForceReindex = true

	stats, err := IndexPassages(context.Background(), indexFixture(), embedder, store, nil, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.deleted) != 3 {
		t.Errorf("expected all ids deleted first, got %v", store.deleted)
	}
	if stats.Indexed != 3 {
		t.Errorf("expected 3 indexed, got %d", stats.Indexed)
	}
}

func TestIndexPassages_WritesCatalog(t *testing.T) {
	store := &recordingStore{}
	embedder := &fakeEmbedder{}

	catalog, err := passage.OpenStore(t.TempDir() + "/catalog.db")
	if err != nil {
		t.Fatalf("opening catalog: %v", err)
	}
	defer catalog.Close()

	if _, err := IndexPassages(context.Background(), indexFixture(), embedder, store, catalog, DefaultIndexOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := catalog.Count(context.Background())
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 catalog rows, got %d", n)
	}
}

func TestIndexPassages_Empty(t *testing.T) {
	store := &recordingStore{}
	stats, err := IndexPassages(context.Background(), nil, &fakeEmbedder{}, store, nil, DefaultIndexOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 0 || stats.Indexed != 0 {
		t.Errorf("unexpected stats for empty input: %+v", stats)
	}
}

func TestIndexPassages_Batching(t *testing.T) {
	store := &recordingStore{}
	embedder := &fakeEmbedder{}

	opts := DefaultIndexOptions()
	opts.BatchSize = 2

	stats, err := IndexPassages(context.Background(), indexFixture(), embedder, store, nil, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 3 {
		t.Errorf("expected 3 indexed, got %d", stats.Indexed)
	}
	if embedder.calls != 2 {
		t.Errorf("expected 2 embedding batches, got %d", embedder.calls)
	}
}
