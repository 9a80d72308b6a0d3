package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"docqa-platform/models"
)

// Fingerprint derives the stable document identity from content bytes alone.
// Byte-identical uploads always map to the same fingerprint regardless of
// filename or upload time.
func Fingerprint(fileBytes []byte) string {
	sum := sha256.Sum256(fileBytes)
	return hex.EncodeToString(sum[:])
}

// IngestionService runs the ingestion pipeline: extract, register, chunk,
// embed, upsert, mark indexed. Any failure after registration rolls back so
// a failed ingestion leaves zero partial artifacts.
type IngestionService struct {
	extractor Extractor
	chunker   *Chunker
	embedder  Embedder
	index     VectorIndex
	registry  DocumentRegistry
	sessions  SessionStore
	log       *slog.Logger
}

func NewIngestionService(extractor Extractor, chunker *Chunker, embedder Embedder,
	index VectorIndex, registry DocumentRegistry, sessions SessionStore, log *slog.Logger) (*IngestionService, error) {
	if embedder.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: embedder declares %d dimensions, index %d",
			ErrDimensionMismatch, embedder.Dimension(), index.Dimension())
	}
	if log == nil {
		log = slog.Default()
	}
	return &IngestionService{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		registry:  registry,
		sessions:  sessions,
		log:       log,
	}, nil
}

// Ingest processes one uploaded document. Duplicate content short-circuits
// with already_indexed, which is a normal outcome, not an error. Pipeline
// failures are reported both in the response (status failed plus reason) and
// as the returned error so transports can map the error kind to a code.
func (s *IngestionService) Ingest(ctx context.Context, sessionID, filename, mimeType string, fileBytes []byte) (*models.IngestResponse, error) {
	fingerprint := Fingerprint(fileBytes)

	doc := &models.Document{
		Fingerprint: fingerprint,
		Filename:    filename,
		MimeType:    mimeType,
		SizeBytes:   int64(len(fileBytes)),
	}
	outcome, err := s.registry.Register(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}
	if outcome == models.OutcomeAlreadyIndexed {
		if err := s.sessions.Track(ctx, sessionID, fingerprint); err != nil {
			s.log.Warn("session track failed", "session_id", sessionID, "error", err)
		}
		s.log.Info("document already indexed", "document_id", fingerprint, "filename", filename)
		return &models.IngestResponse{
			Status:     string(models.OutcomeAlreadyIndexed),
			DocumentID: fingerprint,
			Filename:   filename,
		}, nil
	}

	// From here on we own the document; every failure must roll back.
	text, err := s.extractor.Extract(fileBytes, mimeType)
	if err != nil {
		return s.fail(ctx, fingerprint, filename, fmt.Errorf("extract: %w", err))
	}

	chunks := s.chunker.Chunk(fingerprint, text)
	if len(chunks) == 0 {
		return s.fail(ctx, fingerprint, filename, fmt.Errorf("%w: document produced no chunks", ErrCorruptDocument))
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return s.fail(ctx, fingerprint, filename, fmt.Errorf("embed chunks: %w", err))
	}
	if len(vectors) != len(chunks) {
		return s.fail(ctx, fingerprint, filename,
			fmt.Errorf("%w: %d vectors for %d chunks", ErrEmbeddingUnavailable, len(vectors), len(chunks)))
	}

	records := make([]models.VectorRecord, len(chunks))
	for i, ch := range chunks {
		records[i] = models.VectorRecord{
			DocumentID: fingerprint,
			ChunkIndex: ch.Index,
			Text:       ch.Text,
			Vector:     vectors[i],
		}
	}
	if err := s.index.Upsert(ctx, records); err != nil {
		return s.fail(ctx, fingerprint, filename, fmt.Errorf("upsert vectors: %w", err))
	}

	if err := s.registry.MarkIndexed(ctx, fingerprint, len(chunks)); err != nil {
		return s.fail(ctx, fingerprint, filename, fmt.Errorf("mark indexed: %w", err))
	}
	if err := s.sessions.Track(ctx, sessionID, fingerprint); err != nil {
		s.log.Warn("session track failed", "session_id", sessionID, "error", err)
	}

	s.log.Info("document indexed",
		"document_id", fingerprint, "filename", filename, "chunks", len(chunks))
	return &models.IngestResponse{
		Status:     string(models.OutcomeAccepted),
		DocumentID: fingerprint,
		Filename:   filename,
		ChunkCount: len(chunks),
	}, nil
}

// Delete removes a document's vectors and its registry entry. Missing
// documents are not an error.
func (s *IngestionService) Delete(ctx context.Context, fingerprint string) error {
	if err := s.index.DeleteByDocument(ctx, fingerprint); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return s.registry.Delete(ctx, fingerprint)
}

// fail rolls the document back: no orphaned vectors, registry marked failed.
func (s *IngestionService) fail(ctx context.Context, fingerprint, filename string, cause error) (*models.IngestResponse, error) {
	if err := s.index.DeleteByDocument(ctx, fingerprint); err != nil {
		s.log.Error("rollback delete failed", "document_id", fingerprint, "error", err)
	}
	if err := s.registry.MarkFailed(ctx, fingerprint, cause.Error()); err != nil {
		s.log.Error("mark failed errored", "document_id", fingerprint, "error", err)
	}
	s.log.Warn("ingestion failed",
		"document_id", fingerprint, "filename", filename, "kind", ErrorKind(cause), "error", cause)
	return &models.IngestResponse{
		Status:     "failed",
		DocumentID: fingerprint,
		Filename:   filename,
		Reason:     cause.Error(),
	}, cause
}
