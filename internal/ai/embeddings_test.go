package ai

import (
	"context"
	"os"
	"testing"

	"docqa-platform/internal/config"
)

func TestEmbedLive(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skipf("config load failed: %v", err)
	}

	embedder, err := NewGeminiEmbedder(context.Background(), cfg)
	if err != nil {
		t.Fatalf("embedder init: %v", err)
	}
	defer embedder.Close()

	vectors, err := embedder.Embed(context.Background(), []string{"hello world", "goodbye world"})
	if err != nil {
		t.Fatalf("embedding error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != embedder.Dimension() {
			t.Fatalf("vector %d has %d dimensions, declared %d", i, len(vec), embedder.Dimension())
		}
	}
}
