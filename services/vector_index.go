package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docqa-platform/models"
)

// Similarity metrics supported by the index. The metric is fixed for the
// lifetime of an index instance.
const (
	MetricCosine = "cosine"
	MetricDot    = "dot"
)

// VectorIndex stores (vector, chunk metadata) tuples and answers
// nearest-neighbor queries. Upsert is all-or-nothing per document with
// respect to concurrent Query calls, and ranking is reproducible: identical
// contents and query vector always yield identical ordered output.
type VectorIndex interface {
	Upsert(ctx context.Context, records []models.VectorRecord) error
	Query(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error)
	DeleteByDocument(ctx context.Context, fingerprint string) error
	Dimension() int
}

type scoredRecord struct {
	rec   models.VectorRecord
	score float64
}

// rankRecords sorts by descending score, ties broken by ascending chunk
// index then ascending document id, and truncates to k.
func rankRecords(scored []scoredRecord, k int) models.RetrievalResult {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].rec.ChunkIndex != scored[j].rec.ChunkIndex {
			return scored[i].rec.ChunkIndex < scored[j].rec.ChunkIndex
		}
		return scored[i].rec.DocumentID < scored[j].rec.DocumentID
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	result := models.RetrievalResult{Chunks: make([]models.RetrievedChunk, 0, len(scored))}
	for _, s := range scored {
		result.Chunks = append(result.Chunks, models.RetrievedChunk{
			DocumentID: s.rec.DocumentID,
			ChunkIndex: s.rec.ChunkIndex,
			Text:       s.rec.Text,
			Score:      s.score,
		})
	}
	return result
}

func similarity(metric string, a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if metric == MetricDot {
		return dot
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MemoryVectorIndex is a brute-force in-process index. Records are grouped
// per document and a whole document's batch is committed under one write
// lock, so a concurrent Query sees either none or all of its chunks.
type MemoryVectorIndex struct {
	mu        sync.RWMutex
	dimension int
	metric    string
	byDoc     map[string][]models.VectorRecord
}

func NewMemoryVectorIndex(dimension int, metric string) (*MemoryVectorIndex, error) {
	if dimension <= 0 {
		return nil, invalidConfigf("vector dimension must be positive, got %d", dimension)
	}
	switch metric {
	case MetricCosine, MetricDot:
	case "":
		metric = MetricCosine
	default:
		return nil, invalidConfigf("unknown similarity metric %q", metric)
	}
	return &MemoryVectorIndex{
		dimension: dimension,
		metric:    metric,
		byDoc:     make(map[string][]models.VectorRecord),
	}, nil
}

func (idx *MemoryVectorIndex) Dimension() int { return idx.dimension }

func (idx *MemoryVectorIndex) Upsert(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if len(rec.Vector) != idx.dimension {
			return fmt.Errorf("%w: record %s/%d has %d dimensions, index expects %d",
				ErrDimensionMismatch, rec.DocumentID, rec.ChunkIndex, len(rec.Vector), idx.dimension)
		}
	}

	grouped := make(map[string][]models.VectorRecord)
	for _, rec := range records {
		grouped[rec.DocumentID] = append(grouped[rec.DocumentID], rec)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for docID, recs := range grouped {
		// Replace, not append: re-upserting a document never duplicates
		// its vector set.
		idx.byDoc[docID] = recs
	}
	return nil
}

func (idx *MemoryVectorIndex) Query(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		return models.RetrievalResult{}, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}
	if len(vector) != idx.dimension {
		return models.RetrievalResult{}, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			ErrDimensionMismatch, len(vector), idx.dimension)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var scored []scoredRecord
	for _, recs := range idx.byDoc {
		for _, rec := range recs {
			scored = append(scored, scoredRecord{rec: rec, score: similarity(idx.metric, rec.Vector, vector)})
		}
	}
	return rankRecords(scored, k), nil
}

func (idx *MemoryVectorIndex) DeleteByDocument(ctx context.Context, fingerprint string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.byDoc, fingerprint)
	return nil
}

// MongoVectorIndex persists vector records in a collection and scores
// candidates client-side. Visibility of a document's records is gated on the
// registry's indexed status: the status flip is a single-document update, so
// a query never observes a partially written document even though the bulk
// insert itself is not transactional.
type MongoVectorIndex struct {
	col       *mongo.Collection
	registry  DocumentRegistry
	dimension int
	metric    string
}

func NewMongoVectorIndex(db *mongo.Database, registry DocumentRegistry, dimension int, metric string) (*MongoVectorIndex, error) {
	if dimension <= 0 {
		return nil, invalidConfigf("vector dimension must be positive, got %d", dimension)
	}
	if metric == "" {
		metric = MetricCosine
	}
	if metric != MetricCosine && metric != MetricDot {
		return nil, invalidConfigf("unknown similarity metric %q", metric)
	}
	return &MongoVectorIndex{
		col:       db.Collection("vector_records"),
		registry:  registry,
		dimension: dimension,
		metric:    metric,
	}, nil
}

func (idx *MongoVectorIndex) Dimension() int { return idx.dimension }

func (idx *MongoVectorIndex) Upsert(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		if len(rec.Vector) != idx.dimension {
			return fmt.Errorf("%w: record %s/%d has %d dimensions, index expects %d",
				ErrDimensionMismatch, rec.DocumentID, rec.ChunkIndex, len(rec.Vector), idx.dimension)
		}
		batch = append(batch, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"document_id": rec.DocumentID, "chunk_index": rec.ChunkIndex}).
			SetUpdate(bson.M{"$set": bson.M{
				"document_id": rec.DocumentID,
				"chunk_index": rec.ChunkIndex,
				"text":        rec.Text,
				"vector":      rec.Vector,
			}}).
			SetUpsert(true))
	}
	_, err := idx.col.BulkWrite(ctx, batch, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("vector upsert: %w", err)
	}
	return nil
}

func (idx *MongoVectorIndex) Query(ctx context.Context, vector []float32, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		return models.RetrievalResult{}, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}
	if len(vector) != idx.dimension {
		return models.RetrievalResult{}, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			ErrDimensionMismatch, len(vector), idx.dimension)
	}

	visible, err := idx.registry.IndexedSet(ctx)
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("resolve visible documents: %w", err)
	}
	if len(visible) == 0 {
		return models.RetrievalResult{}, nil
	}

	fingerprints := make([]string, 0, len(visible))
	for fp := range visible {
		fingerprints = append(fingerprints, fp)
	}
	cursor, err := idx.col.Find(ctx, bson.M{"document_id": bson.M{"$in": fingerprints}})
	if err != nil {
		return models.RetrievalResult{}, fmt.Errorf("vector query: %w", err)
	}
	defer cursor.Close(ctx)

	var scored []scoredRecord
	for cursor.Next(ctx) {
		var rec models.VectorRecord
		if err := cursor.Decode(&rec); err != nil {
			return models.RetrievalResult{}, err
		}
		scored = append(scored, scoredRecord{rec: rec, score: similarity(idx.metric, rec.Vector, vector)})
	}
	if err := cursor.Err(); err != nil {
		return models.RetrievalResult{}, err
	}
	return rankRecords(scored, k), nil
}

func (idx *MongoVectorIndex) DeleteByDocument(ctx context.Context, fingerprint string) error {
	_, err := idx.col.DeleteMany(ctx, bson.M{"document_id": fingerprint})
	return err
}
