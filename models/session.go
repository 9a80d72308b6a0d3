package models

import "time"

// Session maps a client-visible session id to the documents ingested in that
// conversational context. Append-only: the set never shrinks during the
// session's lifetime; expiry is handled by an external lifecycle policy.
type Session struct {
	ID          string    `bson:"_id" json:"session_id"`
	DocumentIDs []string  `bson:"document_ids" json:"document_ids"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
