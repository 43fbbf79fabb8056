package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/tahrir-ai/tahrir/internal/passage"
)

// IndexOptions configures an indexing run.
type IndexOptions struct {
	// BatchSize bounds how many passages are embedded per API call
	BatchSize int

	// SkipExisting avoids re-embedding passages already in the vector store
	SkipExisting bool

	// ForceReindex deletes existing entries before re-inserting
	ForceReindex bool
}

// DefaultIndexOptions returns the documented indexing defaults.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize:    64,
		SkipExisting: true,
		ForceReindex: false,
	}
}

// IndexStats summarizes an indexing run.
type IndexStats struct {
	Total    int
	Indexed  int
	Skipped  int
	Replaced int
}

// IndexPassages embeds passages in batches and writes them to both the
// vector store and the catalog store. Passages arriving with embeddings
// already set are re-embedded; the embedder is the source of truth.
func IndexPassages(ctx context.Context, passages []passage.Passage, embedder Embedder, store VectorStore, catalog *passage.Store, opts IndexOptions) (IndexStats, error) {
	stats := IndexStats{Total: len(passages)}
	if len(passages) == 0 {
		return stats, nil
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIndexOptions().BatchSize
	}

	pending := passages
	if opts.ForceReindex {
		ids := make([]string, len(passages))
		for i, p := range passages {
			ids[i] = p.ID
		}
		if err := store.Delete(ctx, ids); err != nil {
			return stats, fmt.Errorf("clearing existing passages: %w", err)
		}
		stats.Replaced = len(ids)
	} else if opts.SkipExisting {
		ids := make([]string, len(passages))
		for i, p := range passages {
			ids[i] = p.ID
		}
		existing, err := store.Exists(ctx, ids)
		if err != nil {
			return stats, fmt.Errorf("checking existing passages: %w", err)
		}
		pending = pending[:0:0]
		for _, p := range passages {
			if existing[p.ID] {
				stats.Skipped++
				continue
			}
			pending = append(pending, p)
		}
	}

	for start := 0; start < len(pending); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return stats, fmt.Errorf("embedding batch at %d: %w", start, err)
		}

		embedded := make([]passage.Passage, len(batch))
		for i, p := range batch {
			p.Embedding = vectors[i]
			embedded[i] = p
		}

		if err := store.Insert(ctx, embedded); err != nil {
			return stats, fmt.Errorf("inserting batch at %d: %w", start, err)
		}
		if catalog != nil {
			if err := catalog.Insert(ctx, embedded); err != nil {
				return stats, fmt.Errorf("writing catalog batch at %d: %w", start, err)
			}
		}

		stats.Indexed += len(batch)
		log.Printf("[Indexer] indexed %d/%d passages", stats.Indexed, len(pending))
	}

	if err := store.Flush(ctx); err != nil {
		return stats, fmt.Errorf("flushing vector store: %w", err)
	}

	return stats, nil
}
