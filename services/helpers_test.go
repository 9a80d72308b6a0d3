package services

import (
	"context"
	"crypto/sha256"
	"fmt"

	"docqa-platform/models"
)

// stubEmbedder returns deterministic vectors: fixed ones from the vectors
// map when present, otherwise a hash-derived vector. It never talks to a
// real model.
type stubEmbedder struct {
	dim     int
	vectors map[string][]float32
	fail    bool
	calls   int
}

func (e *stubEmbedder) Dimension() int { return e.dim }

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail {
		return nil, fmt.Errorf("%w: stub failure", ErrEmbeddingUnavailable)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := e.vectors[text]; ok {
			out[i] = v
			continue
		}
		sum := sha256.Sum256([]byte(text))
		vec := make([]float32, e.dim)
		for j := 0; j < e.dim; j++ {
			vec[j] = float32(sum[j%len(sum)]) / 255
		}
		out[i] = vec
	}
	return out, nil
}

type stubGenerator struct {
	answer string
	fail   bool
	prompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	if g.fail {
		return "", fmt.Errorf("%w: stub failure", ErrGenerationUnavailable)
	}
	return g.answer, nil
}

type mapAnswerCache struct {
	entries map[string]*models.AskResponse
}

func newMapAnswerCache() *mapAnswerCache {
	return &mapAnswerCache{entries: make(map[string]*models.AskResponse)}
}

func (c *mapAnswerCache) Get(ctx context.Context, sessionID, question string, k int) (*models.AskResponse, bool) {
	resp, ok := c.entries[answerCacheKey(sessionID, question, k)]
	if !ok {
		return nil, false
	}
	cp := *resp
	return &cp, true
}

func (c *mapAnswerCache) Set(ctx context.Context, sessionID, question string, k int, resp *models.AskResponse) {
	c.entries[answerCacheKey(sessionID, question, k)] = resp
}
