package models

import "time"

// Document tracks a source document through the ingestion pipeline.
// Identity is the content fingerprint, not the filename: byte-identical
// uploads map to the same Document regardless of name or upload time.
type Document struct {
	Fingerprint  string     `bson:"_id" json:"document_id"`
	Filename     string     `bson:"filename" json:"filename"`
	MimeType     string     `bson:"mime_type" json:"mime_type"`
	SizeBytes    int64      `bson:"size_bytes" json:"size_bytes"`
	Status       string     `bson:"status" json:"status"`
	ChunkCount   int        `bson:"chunk_count" json:"chunk_count"`
	ErrorMessage string     `bson:"error_message,omitempty" json:"error_message,omitempty"`
	UploadedAt   time.Time  `bson:"uploaded_at" json:"uploaded_at"`
	IndexedAt    *time.Time `bson:"indexed_at,omitempty" json:"indexed_at,omitempty"`
}

// Document status constants. A document is never partially visible: its
// chunks become queryable only once it reaches StatusIndexed.
const (
	StatusPending = "pending"
	StatusIndexed = "indexed"
	StatusFailed  = "failed"
)

// RegisterOutcome is the result of registering a fingerprint for ingestion.
type RegisterOutcome string

const (
	// OutcomeAccepted means this caller owns the ingestion of the document.
	OutcomeAccepted RegisterOutcome = "accepted"
	// OutcomeAlreadyIndexed short-circuits ingestion; it is not an error.
	OutcomeAlreadyIndexed RegisterOutcome = "already_indexed"
)
