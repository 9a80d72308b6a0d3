package services

import (
	"errors"
	"fmt"
)

// Stable error kinds for the ingestion and retrieval engine. Every failure
// surfaced to a caller wraps exactly one of these sentinels, so transports
// can map errors to codes without string matching.
var (
	// ErrInvalidConfiguration rejects bad chunking or engine parameters
	// before any side effect.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidArgument rejects bad per-call arguments such as k <= 0.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedFormat means the extraction stage does not understand
	// the uploaded mime type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptDocument means the file was recognized but yielded no
	// extractable text.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrEmbeddingUnavailable is retryable: the embedding backend failed or
	// timed out. A failed batch fails as a whole; there is no partial
	// success, so callers retry the full batch.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrDimensionMismatch signals configuration drift between the embedding
	// model and the vector index. Fatal, never retried.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrGenerationUnavailable means answer generation failed; retrieved
	// evidence is still returned to the caller.
	ErrGenerationUnavailable = errors.New("generation unavailable")
)

// ErrorKind maps an engine error to its stable machine-readable kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrCorruptDocument):
		return "corrupt_document"
	case errors.Is(err, ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrGenerationUnavailable):
		return "generation_unavailable"
	default:
		return "internal_error"
	}
}

// Retryable reports whether the caller may retry the operation that produced
// err. Only transient backend failures qualify.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable) || errors.Is(err, ErrGenerationUnavailable)
}

func invalidConfigf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
