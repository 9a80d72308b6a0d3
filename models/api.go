package models

// IngestResponse is returned by the upload endpoint.
type IngestResponse struct {
	Status     string `json:"status"` // accepted, already_indexed, failed, queued
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Reason     string `json:"reason,omitempty"`
	TaskID     string `json:"task_id,omitempty"` // set for async processing
}

// AskRequest is the question-answering request body.
type AskRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Question  string `json:"question" binding:"required"`
	TopK      int    `json:"k,omitempty"`
}

// Citation points at one evidence chunk used for an answer.
type Citation struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// AskResponse carries the generated answer plus its evidence. CitedChunks is
// preserved even when generation fails so the caller can retry generation
// without re-retrieving.
type AskResponse struct {
	Answer      string     `json:"answer"`
	Question    string     `json:"question"`
	CitedChunks []Citation `json:"cited_chunks"`
	Cached      bool       `json:"cached,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}
