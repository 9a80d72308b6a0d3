package services

import (
	"context"
	"fmt"

	"docqa-platform/models"
)

// Embedder is the narrow contract over the external embedding model: same
// length and order out as in, fixed declared dimensionality.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Generator is the narrow contract over the external generative model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever embeds a question and asks the vector index for the top-k most
// relevant chunks. When a registry is present, results are annotated with the
// source filename for evidence headers.
type Retriever struct {
	embedder Embedder
	index    VectorIndex
	registry DocumentRegistry
	defaultK int
}

func NewRetriever(embedder Embedder, index VectorIndex, registry DocumentRegistry, defaultK int) (*Retriever, error) {
	if defaultK <= 0 {
		return nil, invalidConfigf("default k must be positive, got %d", defaultK)
	}
	if embedder.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: embedder declares %d dimensions, index %d",
			ErrDimensionMismatch, embedder.Dimension(), index.Dimension())
	}
	return &Retriever{embedder: embedder, index: index, registry: registry, defaultK: defaultK}, nil
}

// Retrieve returns up to k chunks ranked by similarity to the question.
// k <= 0 falls back to the configured default. An empty corpus yields an
// empty result, not an error; the composer treats that as "no evidence".
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		k = r.defaultK
	}
	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return models.RetrievalResult{}, fmt.Errorf("%w: expected one query vector, got %d",
			ErrEmbeddingUnavailable, len(vectors))
	}
	result, err := r.index.Query(ctx, vectors[0], k)
	if err != nil {
		return models.RetrievalResult{}, err
	}
	r.annotateFilenames(ctx, result.Chunks)
	return result, nil
}

// annotateFilenames is best-effort: a registry miss leaves the chunk's
// filename empty and the composer falls back to the document id.
func (r *Retriever) annotateFilenames(ctx context.Context, chunks []models.RetrievedChunk) {
	if r.registry == nil {
		return
	}
	names := make(map[string]string)
	for i := range chunks {
		name, ok := names[chunks[i].DocumentID]
		if !ok {
			doc, err := r.registry.Get(ctx, chunks[i].DocumentID)
			if err == nil && doc != nil {
				name = doc.Filename
			}
			names[chunks[i].DocumentID] = name
		}
		chunks[i].Filename = name
	}
}
