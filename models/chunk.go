package models

// Chunk is a bounded, possibly-overlapping segment of a document's text.
// Chunks fully cover the source text: chunk i starts at
// i*(chunkSize-overlap) and the final chunk may be shorter than chunkSize.
type Chunk struct {
	DocumentID string `bson:"document_id" json:"document_id"`
	Index      int    `bson:"chunk_index" json:"chunk_index"`
	Text       string `bson:"text" json:"text"`
	Start      int    `bson:"start" json:"start"`
	End        int    `bson:"end" json:"end"`
	Overlap    int    `bson:"overlap" json:"overlap"`
}

// VectorRecord is the persisted unit of the vector index: one record per
// chunk, carrying the embedding and a back-reference to the document.
type VectorRecord struct {
	DocumentID string    `bson:"document_id" json:"document_id"`
	ChunkIndex int       `bson:"chunk_index" json:"chunk_index"`
	Text       string    `bson:"text" json:"text"`
	Vector     []float32 `bson:"vector" json:"-"`
}

// RetrievedChunk is one similarity-ranked result.
type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Filename   string  `json:"filename,omitempty"`
}

// RetrievalResult is an ordered sequence of retrieved chunks, length <= k,
// sorted by descending score with ties broken by ascending chunk index then
// ascending document id.
type RetrievalResult struct {
	Chunks []RetrievedChunk `json:"chunks"`
}

// Empty reports whether retrieval produced no evidence.
func (r RetrievalResult) Empty() bool { return len(r.Chunks) == 0 }
