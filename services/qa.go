package services

import (
	"context"
	"fmt"
	"log/slog"

	"docqa-platform/models"
)

// QAService answers questions from indexed evidence only: retrieve, compose
// a guarded prompt, generate. Evidence survives generation failures so the
// caller can retry generation without re-retrieving.
type QAService struct {
	retriever       *Retriever
	generator       Generator
	cache           AnswerCache
	maxContextChars int
	log             *slog.Logger
}

func NewQAService(retriever *Retriever, generator Generator, cache AnswerCache,
	maxContextChars int, log *slog.Logger) (*QAService, error) {
	if maxContextChars <= 0 {
		return nil, invalidConfigf("max context chars must be positive, got %d", maxContextChars)
	}
	if cache == nil {
		cache = NoopAnswerCache{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &QAService{
		retriever:       retriever,
		generator:       generator,
		cache:           cache,
		maxContextChars: maxContextChars,
		log:             log,
	}, nil
}

// Ask answers question using only indexed content as evidence. On
// GenerationUnavailable the response still carries the citations (and the
// error is returned alongside it); every other failure returns a nil
// response.
func (s *QAService) Ask(ctx context.Context, sessionID, question string, k int) (*models.AskResponse, error) {
	if cached, ok := s.cache.Get(ctx, sessionID, question, k); ok {
		cached.Cached = true
		return cached, nil
	}

	results, err := s.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve evidence: %w", err)
	}

	prompt, err := Compose(question, results, s.maxContextChars)
	if err != nil {
		return nil, err
	}

	citations := make([]models.Citation, 0, len(results.Chunks))
	for _, chunk := range results.Chunks {
		citations = append(citations, models.Citation{
			DocumentID: chunk.DocumentID,
			ChunkIndex: chunk.ChunkIndex,
			Score:      chunk.Score,
		})
	}

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		// Keep the evidence: the caller retries generation only.
		s.log.Warn("generation failed", "session_id", sessionID, "error", err)
		return &models.AskResponse{
			Question:    question,
			CitedChunks: citations,
			Reason:      "answer generation temporarily unavailable",
		}, err
	}

	resp := &models.AskResponse{
		Answer:      answer,
		Question:    question,
		CitedChunks: citations,
	}
	s.cache.Set(ctx, sessionID, question, k, resp)
	return resp, nil
}
