package answer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"paperqa/internal/chunker"
	"paperqa/internal/index"
	"paperqa/internal/llm"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func results() []index.ScoredChunk {
	return []index.ScoredChunk{
		{Chunk: chunker.Chunk{Text: "The sky appears blue due to Rayleigh scattering.", Source: "atmos-paper", Page: 3, Index: 0}, Score: 0.91},
		{Chunk: chunker.Chunk{Text: "Scattering intensity varies with wavelength.", Source: "atmos-paper", Page: 4, Index: 1}, Score: 0.77},
	}
}

func TestAnswerBuildsLabeledPrompt(t *testing.T) {
	m := &llm.MockClient{}
	var captured string
	m.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.String(2) }).
		Return("1) Blue because of scattering.\n2) [Chunk 1]", nil)

	a := New(m, discard())
	got := a.Answer(context.Background(), "Why is the sky blue?", results())

	assert.Equal(t, "1) Blue because of scattering.\n2) [Chunk 1]", got)
	assert.Contains(t, captured, "[Chunk 1 from atmos-paper page=3]")
	assert.Contains(t, captured, "[Chunk 2 from atmos-paper page=4]")
	assert.Contains(t, captured, "ONLY these chunks")
	assert.Contains(t, captured, "Why is the sky blue?")
	assert.Contains(t, captured, "Citations")
	// Chunk text must appear after its label.
	assert.Less(t,
		strings.Index(captured, "[Chunk 1 from"),
		strings.Index(captured, "Rayleigh scattering"),
	)
}

func TestAnswerModelFailureReturnsApology(t *testing.T) {
	m := &llm.MockClient{}
	m.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection reset"))

	a := New(m, discard())
	got := a.Answer(context.Background(), "anything?", results())

	assert.Contains(t, got, "I apologize")
	assert.Contains(t, got, "connection reset")
}

func TestAnswerEmptySourceLabel(t *testing.T) {
	m := &llm.MockClient{}
	var captured string
	m.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.String(2) }).
		Return("ok", nil)

	a := New(m, discard())
	a.Answer(context.Background(), "q", []index.ScoredChunk{
		{Chunk: chunker.Chunk{Text: "text", Page: 1}},
	})

	assert.Contains(t, captured, "[Chunk 1 from document page=1]")
}
