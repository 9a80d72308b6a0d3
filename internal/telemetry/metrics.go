package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	DocumentsIngested  metric.Int64Counter
	ChunksIndexed      metric.Int64Counter
	IngestionDuration  metric.Float64Histogram
	RetrievalDuration  metric.Float64Histogram
	QuestionsAnswered  metric.Int64Counter
	GenerationFailures metric.Int64Counter
	CacheHits          metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("docqa-platform")

	documentsIngested, err := meter.Int64Counter(
		"ingestion.documents.total",
		metric.WithDescription("Total documents ingested, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingestion.chunks.indexed",
		metric.WithDescription("Total chunks committed to the vector index"),
	)
	if err != nil {
		return nil, err
	}

	ingestionDuration, err := meter.Float64Histogram(
		"ingestion.duration",
		metric.WithDescription("Ingestion pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	retrievalDuration, err := meter.Float64Histogram(
		"retrieval.duration",
		metric.WithDescription("Question retrieval duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	questionsAnswered, err := meter.Int64Counter(
		"qa.questions.total",
		metric.WithDescription("Total questions answered"),
	)
	if err != nil {
		return nil, err
	}

	generationFailures, err := meter.Int64Counter(
		"qa.generation.failures",
		metric.WithDescription("Answer generation failures"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"qa.cache.hits",
		metric.WithDescription("Answer cache hits"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		DocumentsIngested:  documentsIngested,
		ChunksIndexed:      chunksIndexed,
		IngestionDuration:  ingestionDuration,
		RetrievalDuration:  retrievalDuration,
		QuestionsAnswered:  questionsAnswered,
		GenerationFailures: generationFailures,
		CacheHits:          cacheHits,
	}, nil
}

// RecordIngestion records one ingestion outcome.
func (m *Metrics) RecordIngestion(ctx context.Context, status string, chunks int, seconds float64) {
	if m == nil {
		return
	}
	m.DocumentsIngested.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if chunks > 0 {
		m.ChunksIndexed.Add(ctx, int64(chunks))
	}
	m.IngestionDuration.Record(ctx, seconds)
}

// RecordQuestion records one answered (or failed) question.
func (m *Metrics) RecordQuestion(ctx context.Context, cached bool, generationFailed bool, retrievalSeconds float64) {
	if m == nil {
		return
	}
	m.QuestionsAnswered.Add(ctx, 1)
	if cached {
		m.CacheHits.Add(ctx, 1)
	}
	if generationFailed {
		m.GenerationFailures.Add(ctx, 1)
	}
	m.RetrievalDuration.Record(ctx, retrievalSeconds)
}
