package rag

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/tahrir-ai/tahrir/internal/passage"
)

var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrEmptyPassages    = errors.New("no passages provided for insertion")
	ErrConnectionFailed = errors.New("failed to connect to Milvus")
	ErrInsertFailed     = errors.New("failed to insert passages")
	ErrSearchFailed     = errors.New("failed to search vectors")
)

// MilvusConfig holds connection and collection configuration.
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension (e.g., 3072 for text-embedding-3-large)
	IndexType      string // Index type (default: "HNSW")
	MetricType     string // Similarity metric (default: "COSINE")

	// HNSW index parameters
	M              int
	EfConstruction int
}

// DefaultMilvusConfig returns defaults, reading the address and collection
// from the environment when set.
func DefaultMilvusConfig() MilvusConfig {
	address := os.Getenv("MILVUS_ADDRESS")
	if address == "" {
		address = "localhost:19530"
	}

	collection := os.Getenv("MILVUS_COLLECTION")
	if collection == "" {
		collection = "tahrir_passages"
	}

	return MilvusConfig{
		Address:        address,
		CollectionName: collection,
		Dimension:      3072,
		IndexType:      "HNSW",
		MetricType:     "COSINE",
		M:              16,
		EfConstruction: 256,
	}
}

// MilvusStore implements VectorStore on Milvus.
type MilvusStore struct {
	client client.Client
	config MilvusConfig
}

// NewMilvusStore connects to Milvus and ensures the passage collection
// exists with the expected schema.
func NewMilvusStore(ctx context.Context, config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	c, err := client.NewGrpcClient(ctx, config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client: c,
		config: config,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection with schema if it doesn't exist.
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       "pk",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:     "passage_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "source_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "section_label",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.config.Dimension),
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}

	if err := m.client.CreateIndex(ctx, m.config.CollectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// Insert stores passages with their embeddings.
func (m *MilvusStore) Insert(ctx context.Context, passages []passage.Passage) error {
	if len(passages) == 0 {
		return ErrEmptyPassages
	}

	ids := make([]string, len(passages))
	sources := make([]string, len(passages))
	labels := make([]string, len(passages))
	texts := make([]string, len(passages))
	embeddings := make([][]float32, len(passages))

	for i, p := range passages {
		if len(p.Embedding) != m.config.Dimension {
			return fmt.Errorf("%w: passage %s has dimension %d, expected %d",
				ErrInvalidDimension, p.ID, len(p.Embedding), m.config.Dimension)
		}
		ids[i] = p.ID
		sources[i] = p.SourceID
		labels[i] = p.SectionLabel
		texts[i] = p.Text
		embeddings[i] = p.Embedding
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("passage_id", ids),
		entity.NewColumnVarChar("source_id", sources),
		entity.NewColumnVarChar("section_label", labels),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnFloatVector("embedding", m.config.Dimension, embeddings),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	return nil
}

// Search performs top-K similarity search for the query vector.
func (m *MilvusStore) Search(ctx context.Context, queryVector []float32, topK int) ([]Candidate, error) {
	if len(queryVector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(queryVector))
	}

	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(queryVector)}
	outputFields := []string{"passage_id", "source_id", "section_label", "text"}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		"",
		outputFields,
		vectors,
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	if len(results) == 0 {
		return []Candidate{}, nil
	}

	candidates := make([]Candidate, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		c := Candidate{Score: results[0].Scores[i]}

		for _, field := range results[0].Fields {
			col, ok := field.(*entity.ColumnVarChar)
			if !ok {
				continue
			}
			switch field.Name() {
			case "passage_id":
				c.Passage.ID = col.Data()[i]
			case "source_id":
				c.Passage.SourceID = col.Data()[i]
			case "section_label":
				c.Passage.SectionLabel = col.Data()[i]
			case "text":
				c.Passage.Text = col.Data()[i]
			}
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}

// Exists reports which passage ids are present in the store.
func (m *MilvusStore) Exists(ctx context.Context, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	expr := fmt.Sprintf(`passage_id == "%s"`, ids[0])
	for i := 1; i < len(ids); i++ {
		expr = fmt.Sprintf(`%s or passage_id == "%s"`, expr, ids[i])
	}

	results, err := m.client.Query(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		expr,
		[]string{"passage_id"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}

	existence := make(map[string]bool, len(ids))
	for _, id := range ids {
		existence[id] = false
	}

	for _, column := range results {
		if column.Name() != "passage_id" {
			continue
		}
		if col, ok := column.(*entity.ColumnVarChar); ok {
			for _, id := range col.Data() {
				existence[id] = true
			}
		}
	}

	return existence, nil
}

// Delete removes passages by id.
func (m *MilvusStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	expr := fmt.Sprintf(`passage_id == "%s"`, ids[0])
	for i := 1; i < len(ids); i++ {
		expr = fmt.Sprintf(`%s or passage_id == "%s"`, expr, ids[i])
	}

	if err := m.client.Delete(ctx, m.config.CollectionName, "", expr); err != nil {
		return fmt.Errorf("failed to delete passages: %w", err)
	}

	return nil
}

// Flush ensures all pending data is persisted.
func (m *MilvusStore) Flush(ctx context.Context) error {
	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	return nil
}

// Close releases the Milvus connection.
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
