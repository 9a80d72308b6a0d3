package services

import (
	"fmt"
	"strings"

	"docqa-platform/models"
)

// Prompt scaffolding for grounded generation. The instruction is the
// evidence boundary: the model may only answer from the supplied context and
// must say so when the context does not contain the answer.
const (
	groundingInstruction = "You are a helpful assistant. Answer the question ONLY using the provided context. " +
		"If the context does not contain the answer, say so explicitly. Cite the sources you used."
	noEvidenceInstruction = "You are a helpful assistant. No relevant information was found in the indexed documents. " +
		"State explicitly that no relevant information is available to answer the question; do not answer from general knowledge."
	evidenceSeparator = "\n\n---\n\n"
)

// Compose assembles retrieved chunks and the question into a bounded-context
// prompt. It is a pure function: no hidden templates, no external calls, so
// the evidence policy is testable without touching the generative model.
//
// Chunks are concatenated in result order (highest score first). When the
// context exceeds maxContextChars, whole chunks are dropped from the
// low-score end first; a chunk is truncated mid-text only when the
// highest-scored chunk alone exceeds the budget.
func Compose(question string, results models.RetrievalResult, maxContextChars int) (string, error) {
	if maxContextChars <= 0 {
		return "", invalidConfigf("max context chars must be positive, got %d", maxContextChars)
	}

	if results.Empty() {
		return fmt.Sprintf("%s\n\nQUESTION: %s\n\nANSWER:", noEvidenceInstruction, question), nil
	}

	blocks := make([]string, 0, len(results.Chunks))
	total := 0
	for _, chunk := range results.Chunks {
		block := formatEvidence(chunk)
		cost := len(block)
		if len(blocks) > 0 {
			cost += len(evidenceSeparator)
		}
		if total+cost > maxContextChars {
			if len(blocks) == 0 {
				// Unavoidable mid-chunk truncation: even the best chunk is
				// larger than the whole budget.
				blocks = append(blocks, block[:maxContextChars])
			}
			break
		}
		blocks = append(blocks, block)
		total += cost
	}

	context := strings.Join(blocks, evidenceSeparator)
	return fmt.Sprintf("%s\n\nCONTEXT:\n%s\n\nQUESTION: %s\n\nANSWER:",
		groundingInstruction, context, question), nil
}

func formatEvidence(chunk models.RetrievedChunk) string {
	source := chunk.Filename
	if source == "" {
		source = chunk.DocumentID
	}
	header := fmt.Sprintf("[Source: %s, chunk %d] (Relevance: %.0f%%)",
		source, chunk.ChunkIndex, chunk.Score*100)
	return header + "\n" + chunk.Text
}
