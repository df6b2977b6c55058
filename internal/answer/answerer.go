// Package answer combines retrieved chunks and a question into a grounded
// prompt and returns a citation-aware answer.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"paperqa/internal/index"
	"paperqa/internal/llm"
)

// Answerer is best-effort: model failures become an apology string, never an
// error, because this is the user-facing end of the pipeline.
type Answerer struct {
	llm llm.Client
	log *slog.Logger
}

func New(client llm.Client, log *slog.Logger) *Answerer {
	return &Answerer{llm: client, log: log}
}

const answerSystem = "You answer questions using ONLY the provided document chunks."

// Answer builds a labeled-chunk prompt from results and asks the model for a
// two-part response: the final answer, then the citations (chunk labels) it
// actually used.
func (a *Answerer) Answer(ctx context.Context, question string, results []index.ScoredChunk) string {
	user := fmt.Sprintf(`Answer the question using ONLY these chunks:

%s
Question: %s

Format:
1) Final answer
2) Citations (which chunk labels you used)`, buildContext(results), question)

	out, err := a.llm.Complete(ctx, answerSystem, user)
	if err != nil {
		a.log.Warn("answer call failed", "err", err)
		return fmt.Sprintf("I apologize, but I encountered an error while processing your question: %v", err)
	}
	return strings.TrimSpace(out)
}

// buildContext renders each chunk under a stable label so citations can point
// back to a source and page.
func buildContext(results []index.ScoredChunk) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[Chunk %d from %s page=%d]\n%s\n\n", i+1, sourceOf(r), r.Chunk.Page, r.Chunk.Text)
	}
	return b.String()
}

func sourceOf(r index.ScoredChunk) string {
	if r.Chunk.Source == "" {
		return "document"
	}
	return r.Chunk.Source
}
