package services

import (
	"docqa-platform/models"
)

// Chunker splits extracted text into overlapping, fixed-stride segments.
// Chunking is deterministic: re-running it over the same input always yields
// identical boundaries, which is what makes re-ingestion checks idempotent.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker validates the chunking parameters up front so no side effect
// ever happens under a bad configuration.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, invalidConfigf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, invalidConfigf("overlap must satisfy 0 <= overlap < chunk size, got overlap=%d chunk size=%d", overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk slides a window of chunkSize runes over text with stride
// chunkSize-overlap. The final chunk may be shorter than chunkSize; text
// shorter than chunkSize yields exactly one chunk. Consecutive chunks share
// exactly overlap runes, and together the chunks cover the text with no gaps.
func (c *Chunker) Chunk(documentID, text string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	stride := c.chunkSize - c.overlap
	var chunks []models.Chunk
	for start := 0; ; start += stride {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		overlap := c.overlap
		if start == 0 {
			overlap = 0
		}
		chunks = append(chunks, models.Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
			Overlap:    overlap,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Reassemble concatenates chunks with their overlaps removed, reconstructing
// the original text. Used by ingestion self-checks and tests.
func Reassemble(chunks []models.Chunk) string {
	var out []rune
	for _, ch := range chunks {
		runes := []rune(ch.Text)
		if ch.Overlap > len(runes) {
			continue
		}
		out = append(out, runes[ch.Overlap:]...)
	}
	return string(out)
}
