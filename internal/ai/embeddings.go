package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docqa-platform/internal/config"
	"docqa-platform/services"
)

// GeminiEmbedder maps text to fixed-length vectors via Google Generative AI
// (text-embedding-004 by default). Requests are batched up to the configured
// batch size; a partial batch failure fails the whole batch so output order
// always stays aligned with input order.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
	batchSize int
	timeout   time.Duration
}

func NewGeminiEmbedder(ctx context.Context, cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	return &GeminiEmbedder{
		client:    client,
		model:     cfg.EmbeddingsModel,
		dimension: cfg.VectorDimensions,
		batchSize: cfg.EmbeddingBatchSize,
		timeout:   time.Duration(cfg.EmbeddingTimeoutSecs) * time.Second,
	}, nil
}

// Dimension is the declared vector length; every index operation must agree
// with it.
func (e *GeminiEmbedder) Dimension() int { return e.dimension }

// Embed returns one vector per input text, same length and order as texts.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	model := e.client.EmbeddingModel(e.model)

	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batchCtx, cancel := context.WithTimeout(ctx, e.timeout)
		batch := model.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}
		resp, err := model.BatchEmbedContents(batchCtx, batch)
		cancel()
		if err != nil {
			// Timeouts and backend errors are both retryable; the caller
			// retries the full batch.
			return nil, fmt.Errorf("%w: %v", services.ErrEmbeddingUnavailable, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
				services.ErrEmbeddingUnavailable, len(resp.Embeddings), end-start)
		}
		for _, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, fmt.Errorf("%w: empty embedding in batch", services.ErrEmbeddingUnavailable)
			}
			if len(emb.Values) != e.dimension {
				return nil, fmt.Errorf("%w: model returned %d dimensions, configured %d",
					services.ErrDimensionMismatch, len(emb.Values), e.dimension)
			}
			vectors = append(vectors, emb.Values)
		}
	}
	return vectors, nil
}

func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
