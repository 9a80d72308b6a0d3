package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"docqa-platform/models"
)

type ingestFixture struct {
	service  *IngestionService
	registry *MemoryRegistry
	index    *MemoryVectorIndex
	sessions *MemorySessionStore
	embedder *stubEmbedder
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	registry := NewMemoryRegistry()
	index := mustMemoryIndex(t, 4)
	sessions := NewMemorySessionStore()
	embedder := &stubEmbedder{dim: 4}
	chunker, err := NewChunker(100, 20)
	if err != nil {
		t.Fatal(err)
	}
	service, err := NewIngestionService(NewDocumentExtractor(), chunker, embedder, index, registry, sessions, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &ingestFixture{service: service, registry: registry, index: index, sessions: sessions, embedder: embedder}
}

func TestIngestHappyPath(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	content := []byte(strings.Repeat("refund policy text ", 20))

	resp, err := f.service.Ingest(ctx, "sess", "policy.txt", "text/plain", content)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != string(models.OutcomeAccepted) {
		t.Fatalf("status %s", resp.Status)
	}
	if resp.DocumentID != Fingerprint(content) {
		t.Fatal("document id must be the content fingerprint")
	}
	if resp.ChunkCount == 0 {
		t.Fatal("expected chunks")
	}

	doc, _ := f.registry.Get(ctx, resp.DocumentID)
	if doc.Status != models.StatusIndexed || doc.ChunkCount != resp.ChunkCount {
		t.Fatalf("registry state %+v", doc)
	}

	sess, _ := f.sessions.Get(ctx, "sess")
	if sess == nil || len(sess.DocumentIDs) != 1 || sess.DocumentIDs[0] != resp.DocumentID {
		t.Fatalf("session not tracked: %+v", sess)
	}
}

func TestIngestDuplicateContent(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	content := []byte("identical bytes")

	first, err := f.service.Ingest(ctx, "sess1", "a.txt", "text/plain", content)
	if err != nil {
		t.Fatal(err)
	}
	embedCalls := f.embedder.calls

	// Same bytes, different filename and session: no re-processing.
	second, err := f.service.Ingest(ctx, "sess2", "b.txt", "text/plain", content)
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != string(models.OutcomeAlreadyIndexed) {
		t.Fatalf("status %s", second.Status)
	}
	if second.DocumentID != first.DocumentID {
		t.Fatal("fingerprints must match")
	}
	if f.embedder.calls != embedCalls {
		t.Fatal("duplicate ingestion must not re-embed")
	}
	// But the second session still gains visibility of the document.
	sess, _ := f.sessions.Get(ctx, "sess2")
	if sess == nil || len(sess.DocumentIDs) != 1 {
		t.Fatalf("duplicate upload not tracked for its session: %+v", sess)
	}
}

func TestIngestEmbeddingFailureRollsBack(t *testing.T) {
	f := newIngestFixture(t)
	f.embedder.fail = true
	ctx := context.Background()
	content := []byte("some document body")

	resp, err := f.service.Ingest(ctx, "sess", "a.txt", "text/plain", content)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding unavailable, got %v", err)
	}
	if resp == nil || resp.Status != "failed" || resp.Reason == "" {
		t.Fatalf("failure response %+v", resp)
	}

	// No partial artifacts: registry failed, zero vectors visible.
	doc, _ := f.registry.Get(ctx, resp.DocumentID)
	if doc.Status != models.StatusFailed {
		t.Fatalf("registry status %s", doc.Status)
	}
	result, _ := f.index.Query(ctx, []float32{1, 0, 0, 0}, 10)
	if !result.Empty() {
		t.Fatalf("orphaned vectors after failure: %d", len(result.Chunks))
	}

	// A retry after recovery succeeds.
	f.embedder.fail = false
	retry, err := f.service.Ingest(ctx, "sess", "a.txt", "text/plain", content)
	if err != nil {
		t.Fatal(err)
	}
	if retry.Status != string(models.OutcomeAccepted) {
		t.Fatalf("retry status %s", retry.Status)
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	f := newIngestFixture(t)

	resp, err := f.service.Ingest(context.Background(), "sess", "img.png", "image/png", []byte{0x89, 0x50})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if resp.Status != "failed" {
		t.Fatalf("status %s", resp.Status)
	}
}

func TestIngestCorruptDocument(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.service.Ingest(context.Background(), "sess", "empty.txt", "text/plain", []byte("   \n\t  "))
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("expected corrupt document, got %v", err)
	}
}

func TestIngestConcurrentSameBytes(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	content := []byte(strings.Repeat("concurrent upload ", 10))

	const workers = 8
	responses := make([]*models.IngestResponse, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.service.Ingest(ctx, "sess", "doc.txt", "text/plain", content)
			if err != nil {
				t.Errorf("ingest: %v", err)
				return
			}
			responses[i] = resp
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		if resp.Status == string(models.OutcomeAccepted) {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted ingestion, got %d", accepted)
	}
}

func TestIngestDelete(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	content := []byte("to be deleted")

	resp, err := f.service.Ingest(ctx, "sess", "doc.txt", "text/plain", content)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.service.Delete(ctx, resp.DocumentID); err != nil {
		t.Fatal(err)
	}

	doc, _ := f.registry.Get(ctx, resp.DocumentID)
	if doc != nil {
		t.Fatalf("registry entry survived delete: %+v", doc)
	}
	result, _ := f.index.Query(ctx, []float32{1, 0, 0, 0}, 10)
	if !result.Empty() {
		t.Fatal("vectors survived delete")
	}

	// Deleted content can be ingested again.
	again, err := f.service.Ingest(ctx, "sess", "doc.txt", "text/plain", content)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != string(models.OutcomeAccepted) {
		t.Fatalf("re-ingest after delete: %s", again.Status)
	}
}

func TestFingerprintStability(t *testing.T) {
	a := Fingerprint([]byte("same content"))
	b := Fingerprint([]byte("same content"))
	c := Fingerprint([]byte("different content"))
	if a != b {
		t.Fatal("identical bytes must fingerprint identically")
	}
	if a == c {
		t.Fatal("different bytes must fingerprint differently")
	}
	if len(a) != 64 {
		t.Fatalf("fingerprint length %d", len(a))
	}
}
