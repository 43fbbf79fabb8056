package rag

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tahrir-ai/tahrir/internal/passage"
)

var (
	ErrEmptyKeyword = errors.New("keyword cannot be empty")
	ErrInvalidTopN  = errors.New("topN must be positive")
)

// maxVariationQueries bounds how many keyword variations are embedded and
// searched per retrieval; more adds cost without widening recall much.
const maxVariationQueries = 3

// Retriever narrows the catalog to candidate passages for a query. The
// vector store does the ANN search; the catalog resolves the hits back to
// full passages with embeddings, which downstream selection needs.
type Retriever struct {
	embedder Embedder
	store    VectorStore
	catalog  passage.Catalog
}

// NewRetriever creates a retriever. The store may be nil, in which case
// every retrieval falls back to the full catalog.
func NewRetriever(embedder Embedder, store VectorStore, catalog passage.Catalog) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		catalog:  catalog,
	}, nil
}

// Candidates returns up to topN candidate passages for the query along with
// the query vectors (keyword first, then variations) used to produce them.
// The candidate pool is a superset input for selection, not the final pick:
// ordering within it carries no meaning.
func (r *Retriever) Candidates(ctx context.Context, q passage.Query, topN int) ([]passage.Passage, [][]float32, error) {
	if q.Keyword == "" {
		return nil, nil, ErrEmptyKeyword
	}
	if topN <= 0 {
		return nil, nil, ErrInvalidTopN
	}

	texts := []string{q.Keyword}
	for i, v := range q.Variations {
		if i >= maxVariationQueries {
			break
		}
		texts = append(texts, v)
	}

	queryVecs, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding query: %w", err)
	}

	if r.store == nil {
		return r.catalog.All(), queryVecs, nil
	}

	seen := make(map[string]bool)
	var pool []passage.Passage
	for _, vec := range queryVecs {
		hits, err := r.store.Search(ctx, vec, topN)
		if err != nil {
			log.Printf("[Retriever] vector search failed, falling back to full catalog: %v", err)
			return r.catalog.All(), queryVecs, nil
		}
		for _, hit := range hits {
			if seen[hit.Passage.ID] {
				continue
			}
			seen[hit.Passage.ID] = true
			// Search hits carry no embedding; resolve through the catalog.
			if full, ok := r.catalog.Get(hit.Passage.ID); ok {
				pool = append(pool, full)
			} else {
				pool = append(pool, hit.Passage)
			}
		}
	}

	if len(pool) == 0 {
		log.Printf("[Retriever] no vector hits for %q, falling back to full catalog", q.Keyword)
		return r.catalog.All(), queryVecs, nil
	}

	return pool, queryVecs, nil
}
