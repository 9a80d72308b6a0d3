package services

import (
	"context"
	"errors"
	"testing"

	"docqa-platform/models"
)

func TestNewRetrieverValidation(t *testing.T) {
	idx := mustMemoryIndex(t, 3)
	embedder := &stubEmbedder{dim: 3}

	if _, err := NewRetriever(embedder, idx, nil, 0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("defaultK=0: %v", err)
	}
	if _, err := NewRetriever(&stubEmbedder{dim: 5}, idx, nil, 4); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("dimension mismatch: %v", err)
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	idx := mustMemoryIndex(t, 3)
	retriever, err := NewRetriever(&stubEmbedder{dim: 3}, idx, nil, 4)
	if err != nil {
		t.Fatal(err)
	}

	result, err := retriever.Retrieve(context.Background(), "anything", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Empty() {
		t.Fatalf("expected empty result, got %d chunks", len(result.Chunks))
	}
}

func TestRetrieveRanksByQuestionSimilarity(t *testing.T) {
	idx := mustMemoryIndex(t, 2)
	embedder := &stubEmbedder{
		dim: 2,
		vectors: map[string][]float32{
			"what about refunds?": {1, 0},
		},
	}
	ctx := context.Background()

	idx.Upsert(ctx, []models.VectorRecord{
		record("doc", 0, 1, 0),
		record("doc", 1, 0, 1),
	})

	retriever, err := NewRetriever(embedder, idx, nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	result, err := retriever.Retrieve(ctx, "what about refunds?", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Chunks) != 1 || result.Chunks[0].ChunkIndex != 0 {
		t.Fatalf("unexpected result %+v", result.Chunks)
	}
}

func TestRetrieveDefaultK(t *testing.T) {
	idx := mustMemoryIndex(t, 2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		idx.Upsert(ctx, []models.VectorRecord{record("doc"+string(rune('a'+i)), 0, 1, 0)})
	}

	retriever, _ := NewRetriever(&stubEmbedder{dim: 2, vectors: map[string][]float32{"q": {1, 0}}}, idx, nil, 2)
	result, err := retriever.Retrieve(ctx, "q", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("expected defaultK=2 chunks, got %d", len(result.Chunks))
	}
}

func TestRetrieveAnnotatesFilenames(t *testing.T) {
	idx := mustMemoryIndex(t, 2)
	registry := NewMemoryRegistry()
	ctx := context.Background()

	registry.Register(ctx, &models.Document{Fingerprint: "doc", Filename: "policy.pdf"})
	registry.MarkIndexed(ctx, "doc", 1)
	idx.Upsert(ctx, []models.VectorRecord{record("doc", 0, 1, 0)})

	retriever, err := NewRetriever(&stubEmbedder{dim: 2, vectors: map[string][]float32{"q": {1, 0}}}, idx, registry, 4)
	if err != nil {
		t.Fatal(err)
	}
	result, err := retriever.Retrieve(ctx, "q", 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Chunks[0].Filename != "policy.pdf" {
		t.Fatalf("filename %q", result.Chunks[0].Filename)
	}
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	idx := mustMemoryIndex(t, 2)
	retriever, _ := NewRetriever(&stubEmbedder{dim: 2, fail: true}, idx, nil, 4)

	_, err := retriever.Retrieve(context.Background(), "q", 4)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding unavailable, got %v", err)
	}
}
