package rag

import (
	"context"

	"github.com/tahrir-ai/tahrir/internal/passage"
)

// Candidate is one ANN search hit: the stored passage fields (without the
// embedding vector, which lives in the catalog) and the similarity score.
type Candidate struct {
	Passage passage.Passage `json:"passage"`
	Score   float32         `json:"score"`
}

// VectorStore is the nearest-neighbor backend holding passage embeddings.
// Implementations must support concurrent searches across runs.
type VectorStore interface {
	// Insert stores passages with their embeddings
	Insert(ctx context.Context, passages []passage.Passage) error

	// Search performs top-K similarity search for the query vector
	Search(ctx context.Context, queryVector []float32, topK int) ([]Candidate, error)

	// Exists reports which passage ids are present in the store
	Exists(ctx context.Context, ids []string) (map[string]bool, error)

	// Delete removes passages by id
	Delete(ctx context.Context, ids []string) error

	// Flush ensures all pending data is persisted
	Flush(ctx context.Context) error

	// Close releases resources and connections
	Close() error
}
