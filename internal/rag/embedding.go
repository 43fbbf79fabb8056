// Package rag provides the retrieval side of the pipeline: text embedding,
// the Milvus-backed vector store holding passage embeddings, the retriever
// that narrows the catalog to candidates for the selector, and the indexer
// that builds both stores from an HTML corpus.
package rag

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	ErrEmptyTexts      = errors.New("no texts provided for embedding")
	ErrMissingAPIKey   = errors.New("OPENAI_API_KEY environment variable not set")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder generates fixed-dimension embeddings for texts.
type Embedder interface {
	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the embedding model identifier
	Model() string

	// Dimension returns the vector dimension
	Dimension() int
}

// OpenAIEmbedder implements Embedder using OpenAI's embeddings API.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates an OpenAI embedder instance.
func NewOpenAIEmbedder(model string, dimension int) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &OpenAIEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
	}, nil
}

// Model returns the embedding model identifier.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Dimension returns the embedding vector dimension.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// Embed generates embeddings for the provided texts.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          e.model,
		Dimensions:     openai.Int(int64(e.dimension)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for j, val := range data.Embedding {
			vec[j] = float32(val)
		}
		vectors[int(data.Index)] = vec
	}

	return vectors, nil
}
