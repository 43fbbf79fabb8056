// Package passage defines the retrievable content units the generation
// pipeline works with: immutable passages with embeddings, transient
// selection queries, and the read-only catalogs that hold them.
package passage

// Passage is an indexed, embedded chunk of reference text.
// Passages are created once during indexing and never mutated afterwards.
type Passage struct {
	// ID uniquely identifies the passage
	ID string `json:"id"`

	// SourceID identifies the originating document, used for diversity accounting
	SourceID string `json:"source_id"`

	// SectionLabel is the heading the passage was extracted under, if any
	SectionLabel string `json:"section_label,omitempty"`

	// Text is the chunk content
	Text string `json:"text"`

	// Embedding is the fixed-dimension vector produced during indexing
	Embedding []float32 `json:"embedding,omitempty"`
}

// Query describes one selection request. A fresh Query is built per
// selection call; queries are never cached across phases.
type Query struct {
	// Keyword is the primary topic string
	Keyword string

	// Variations are alternate phrasings of the keyword used to widen matching
	Variations []string

	// SectionTitle is set only during per-section selection
	SectionTitle string
}

// Catalog provides read-only access to a loaded passage set.
// Implementations must be safe for unlimited concurrent reads.
type Catalog interface {
	// All returns every passage in the catalog
	All() []Passage

	// Get returns the passage with the given id, if present
	Get(id string) (Passage, bool)

	// Len returns the number of passages
	Len() int
}

// MemoryCatalog is an in-memory Catalog, used for tests and small corpora.
type MemoryCatalog struct {
	passages []Passage
	byID     map[string]int
}

// NewMemoryCatalog builds a catalog from the given passages.
func NewMemoryCatalog(passages []Passage) *MemoryCatalog {
	byID := make(map[string]int, len(passages))
	for i, p := range passages {
		byID[p.ID] = i
	}
	return &MemoryCatalog{passages: passages, byID: byID}
}

// All returns every passage in the catalog.
func (c *MemoryCatalog) All() []Passage {
	return c.passages
}

// Get returns the passage with the given id, if present.
func (c *MemoryCatalog) Get(id string) (Passage, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Passage{}, false
	}
	return c.passages[i], true
}

// Len returns the number of passages.
func (c *MemoryCatalog) Len() int {
	return len(c.passages)
}
