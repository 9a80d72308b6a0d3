package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"docqa-platform/models"
)

func TestRegisterConcurrentSingleWinner(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	const workers = 16
	outcomes := make([]models.RegisterOutcome, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := registry.Register(ctx, &models.Document{
				Fingerprint: "same-fingerprint",
				Filename:    "report.pdf",
			})
			if err != nil {
				t.Errorf("register: %v", err)
				return
			}
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, outcome := range outcomes {
		if outcome == models.OutcomeAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted registration, got %d", accepted)
	}
}

func TestRegisterDuplicateAfterIndexed(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	doc := &models.Document{Fingerprint: "fp1", Filename: "a.txt"}
	if outcome, _ := registry.Register(ctx, doc); outcome != models.OutcomeAccepted {
		t.Fatalf("first register: %v", outcome)
	}
	if err := registry.MarkIndexed(ctx, "fp1", 3); err != nil {
		t.Fatal(err)
	}

	// Same content re-uploaded under a different filename is still a duplicate.
	outcome, err := registry.Register(ctx, &models.Document{Fingerprint: "fp1", Filename: "b.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != models.OutcomeAlreadyIndexed {
		t.Fatalf("expected already_indexed, got %v", outcome)
	}

	got, err := registry.Get(ctx, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ChunkCount != 3 || got.Status != models.StatusIndexed {
		t.Fatalf("indexed document mutated by duplicate register: %+v", got)
	}
}

func TestRegisterRetriesAfterFailure(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	doc := &models.Document{Fingerprint: "fp2"}
	registry.Register(ctx, doc)
	if err := registry.MarkFailed(ctx, "fp2", "embedding unavailable"); err != nil {
		t.Fatal(err)
	}

	outcome, err := registry.Register(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != models.OutcomeAccepted {
		t.Fatalf("failed document must re-register as accepted, got %v", outcome)
	}
	got, _ := registry.Get(ctx, "fp2")
	if got.Status != models.StatusPending || got.ErrorMessage != "" {
		t.Fatalf("re-registered document not reset: %+v", got)
	}
}

func TestIndexedSetExcludesPendingAndFailed(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	registry.Register(ctx, &models.Document{Fingerprint: "indexed"})
	registry.MarkIndexed(ctx, "indexed", 1)
	registry.Register(ctx, &models.Document{Fingerprint: "pending"})
	registry.Register(ctx, &models.Document{Fingerprint: "failed"})
	registry.MarkFailed(ctx, "failed", "boom")

	set, err := registry.IndexedSet(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 1 || !set["indexed"] {
		t.Fatalf("indexed set %v", set)
	}
}

func TestStalePending(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	registry.Register(ctx, &models.Document{Fingerprint: "old"})
	registry.Register(ctx, &models.Document{Fingerprint: "indexed"})
	registry.MarkIndexed(ctx, "indexed", 1)

	stale, err := registry.StalePending(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 || stale[0] != "old" {
		t.Fatalf("stale set %v", stale)
	}

	// Nothing predates a cutoff in the past.
	stale, _ = registry.StalePending(ctx, time.Now().Add(-time.Minute))
	if len(stale) != 0 {
		t.Fatalf("expected no stale documents, got %v", stale)
	}
}

func TestRegistryDelete(t *testing.T) {
	registry := NewMemoryRegistry()
	ctx := context.Background()

	registry.Register(ctx, &models.Document{Fingerprint: "fp3"})
	if err := registry.Delete(ctx, "fp3"); err != nil {
		t.Fatal(err)
	}
	got, err := registry.Get(ctx, "fp3")
	if err != nil || got != nil {
		t.Fatalf("expected document gone, got %+v err %v", got, err)
	}
	// Deleting a missing document is a no-op.
	if err := registry.Delete(ctx, "fp3"); err != nil {
		t.Fatal(err)
	}
}
