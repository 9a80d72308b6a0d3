package services

import (
	"errors"
	"strings"
	"testing"

	"docqa-platform/models"
)

func retrieved(doc string, chunk int, text string, score float64) models.RetrievedChunk {
	return models.RetrievedChunk{DocumentID: doc, ChunkIndex: chunk, Text: text, Score: score}
}

func TestComposeInvalidBudget(t *testing.T) {
	_, err := Compose("q", models.RetrievalResult{}, 0)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}

func TestComposeNoEvidence(t *testing.T) {
	prompt, err := Compose("what is the refund policy?", models.RetrievalResult{}, 4000)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompt, "No relevant information was found") {
		t.Fatal("empty-evidence prompt must instruct the model to decline")
	}
	if !strings.Contains(prompt, "what is the refund policy?") {
		t.Fatal("prompt must carry the question")
	}
	if strings.Contains(prompt, "CONTEXT:") {
		t.Fatal("empty-evidence prompt must not carry a context section")
	}
}

func TestComposeGroundingAndCitations(t *testing.T) {
	results := models.RetrievalResult{Chunks: []models.RetrievedChunk{
		{DocumentID: "abc123", ChunkIndex: 2, Text: "refunds within 30 days", Score: 0.91, Filename: "policy.pdf"},
		retrieved("def456", 0, "shipping takes a week", 0.45),
	}}

	prompt, err := Compose("what is the refund policy?", results, 4000)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompt, "ONLY using the provided context") {
		t.Fatal("grounding instruction missing")
	}
	if !strings.Contains(prompt, "[Source: policy.pdf, chunk 2] (Relevance: 91%)") {
		t.Fatalf("source header missing:\n%s", prompt)
	}
	// Falls back to the document id when no filename is known.
	if !strings.Contains(prompt, "[Source: def456, chunk 0] (Relevance: 45%)") {
		t.Fatalf("fallback source header missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, evidenceSeparator) {
		t.Fatal("chunks must be separated")
	}
	// Highest score first.
	if strings.Index(prompt, "refunds within 30 days") > strings.Index(prompt, "shipping takes a week") {
		t.Fatal("chunks out of score order")
	}
}

func TestComposeDropsWholeChunksFirst(t *testing.T) {
	big := strings.Repeat("x", 200)
	results := models.RetrievalResult{Chunks: []models.RetrievedChunk{
		retrieved("doc", 0, big, 0.9),
		retrieved("doc", 1, big, 0.5),
		retrieved("doc", 2, big, 0.1),
	}}

	// Budget fits roughly one block: the low-score chunks are dropped whole.
	prompt, err := Compose("q", results, 300)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompt, "chunk 0") {
		t.Fatal("best chunk missing")
	}
	if strings.Contains(prompt, "chunk 1") || strings.Contains(prompt, "chunk 2") {
		t.Fatal("low-score chunks must be dropped whole")
	}
	// The kept chunk is intact, not truncated.
	if !strings.Contains(prompt, big) {
		t.Fatal("kept chunk was truncated")
	}
}

func TestComposeTruncatesOnlyWhenBestChunkExceedsBudget(t *testing.T) {
	huge := strings.Repeat("y", 1000)
	results := models.RetrievalResult{Chunks: []models.RetrievedChunk{
		retrieved("doc", 0, huge, 0.9),
	}}

	prompt, err := Compose("q", results, 100)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(prompt, huge) {
		t.Fatal("oversized chunk must be truncated")
	}
	if !strings.Contains(prompt, "yyy") {
		t.Fatal("truncated chunk content missing entirely")
	}
}
