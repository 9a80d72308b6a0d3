package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docqa-platform/models"
)

// DocumentRegistry tracks which documents have been ingested, keyed by the
// content fingerprint. Register must be atomic per fingerprint: under
// concurrent calls for the same fingerprint exactly one caller gets
// OutcomeAccepted and owns the ingestion.
type DocumentRegistry interface {
	Register(ctx context.Context, doc *models.Document) (models.RegisterOutcome, error)
	MarkIndexed(ctx context.Context, fingerprint string, chunkCount int) error
	MarkFailed(ctx context.Context, fingerprint, reason string) error
	Get(ctx context.Context, fingerprint string) (*models.Document, error)
	// IndexedSet returns the fingerprints currently visible to retrieval.
	IndexedSet(ctx context.Context) (map[string]bool, error)
	// StalePending lists documents still pending from before cutoff.
	StalePending(ctx context.Context, cutoff time.Time) ([]string, error)
	Delete(ctx context.Context, fingerprint string) error
}

// MemoryRegistry is the in-process registry used by tests and single-node
// deployments. All transitions happen under one mutex, which gives Register
// its compare-and-set semantics for free.
type MemoryRegistry struct {
	mu   sync.Mutex
	docs map[string]*models.Document
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{docs: make(map[string]*models.Document)}
}

func (r *MemoryRegistry) Register(ctx context.Context, doc *models.Document) (models.RegisterOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.docs[doc.Fingerprint]
	if ok && existing.Status != models.StatusFailed {
		return models.OutcomeAlreadyIndexed, nil
	}

	// Either unseen or previously failed; failed documents re-register as a
	// fresh ingestion attempt.
	cp := *doc
	cp.Status = models.StatusPending
	cp.UploadedAt = time.Now()
	cp.ErrorMessage = ""
	r.docs[doc.Fingerprint] = &cp
	return models.OutcomeAccepted, nil
}

func (r *MemoryRegistry) MarkIndexed(ctx context.Context, fingerprint string, chunkCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[fingerprint]
	if !ok {
		return fmt.Errorf("mark indexed: unknown document %s", fingerprint)
	}
	now := time.Now()
	doc.Status = models.StatusIndexed
	doc.ChunkCount = chunkCount
	doc.IndexedAt = &now
	doc.ErrorMessage = ""
	return nil
}

func (r *MemoryRegistry) MarkFailed(ctx context.Context, fingerprint, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[fingerprint]
	if !ok {
		return fmt.Errorf("mark failed: unknown document %s", fingerprint)
	}
	doc.Status = models.StatusFailed
	doc.ErrorMessage = reason
	return nil
}

func (r *MemoryRegistry) Get(ctx context.Context, fingerprint string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[fingerprint]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (r *MemoryRegistry) IndexedSet(ctx context.Context) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(r.docs))
	for fp, doc := range r.docs {
		if doc.Status == models.StatusIndexed {
			set[fp] = true
		}
	}
	return set, nil
}

func (r *MemoryRegistry) StalePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []string
	for fp, doc := range r.docs {
		if doc.Status == models.StatusPending && doc.UploadedAt.Before(cutoff) {
			stale = append(stale, fp)
		}
	}
	return stale, nil
}

func (r *MemoryRegistry) Delete(ctx context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, fingerprint)
	return nil
}

// MongoRegistry persists documents in a collection keyed by fingerprint.
// Register uses a single upsert with a status filter so the accept decision
// is made atomically by the server, not by a read-then-write on the client.
type MongoRegistry struct {
	col *mongo.Collection
}

func NewMongoRegistry(db *mongo.Database) *MongoRegistry {
	return &MongoRegistry{col: db.Collection("documents")}
}

func (r *MongoRegistry) Register(ctx context.Context, doc *models.Document) (models.RegisterOutcome, error) {
	// Match only when the document is absent or failed; a matched (or
	// upserted) write means we won the ingestion slot.
	filter := bson.M{
		"_id":    doc.Fingerprint,
		"status": models.StatusFailed,
	}
	update := bson.M{
		"$set": bson.M{
			"filename":      doc.Filename,
			"mime_type":     doc.MimeType,
			"size_bytes":    doc.SizeBytes,
			"status":        models.StatusPending,
			"error_message": "",
			"uploaded_at":   time.Now(),
		},
	}
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Upsert raced with an existing pending/indexed document.
			return models.OutcomeAlreadyIndexed, nil
		}
		return "", fmt.Errorf("register document: %w", err)
	}
	if res.UpsertedCount == 1 || res.MatchedCount == 1 {
		return models.OutcomeAccepted, nil
	}
	return models.OutcomeAlreadyIndexed, nil
}

func (r *MongoRegistry) MarkIndexed(ctx context.Context, fingerprint string, chunkCount int) error {
	now := time.Now()
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": fingerprint},
		bson.M{"$set": bson.M{
			"status":      models.StatusIndexed,
			"chunk_count": chunkCount,
			"indexed_at":  now,
		}},
	)
	return err
}

func (r *MongoRegistry) MarkFailed(ctx context.Context, fingerprint, reason string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": fingerprint},
		bson.M{"$set": bson.M{
			"status":        models.StatusFailed,
			"error_message": reason,
		}},
	)
	return err
}

func (r *MongoRegistry) Get(ctx context.Context, fingerprint string) (*models.Document, error) {
	var doc models.Document
	err := r.col.FindOne(ctx, bson.M{"_id": fingerprint}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *MongoRegistry) IndexedSet(ctx context.Context) (map[string]bool, error) {
	cursor, err := r.col.Find(ctx, bson.M{"status": models.StatusIndexed},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	set := make(map[string]bool)
	for cursor.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		set[row.ID] = true
	}
	return set, cursor.Err()
}

func (r *MongoRegistry) StalePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	cursor, err := r.col.Find(ctx, bson.M{
		"status":      models.StatusPending,
		"uploaded_at": bson.M{"$lt": cutoff},
	}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stale []string
	for cursor.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		stale = append(stale, row.ID)
	}
	return stale, cursor.Err()
}

func (r *MongoRegistry) Delete(ctx context.Context, fingerprint string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": fingerprint})
	return err
}
