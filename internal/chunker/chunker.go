// Package chunker splits page text into bounded, overlapping segments with
// provenance metadata.
package chunker

import (
	"strings"

	"paperqa/internal/loader"
)

// Options controls how text is chunked. Sizes are measured in characters,
// approximating tokens at four characters per token.
type Options struct {
	Size    int // target chunk size
	Overlap int // shared region between adjacent chunks
}

// Chunk is a bounded slice of a document's text with provenance. Chunks are
// immutable once created.
type Chunk struct {
	Text   string `json:"text"`
	Source string `json:"source"` // owning document id
	Page   int    `json:"page"`   // 1-based page of origin
	Index  int    `json:"index"`  // position within the document's chunk sequence
}

const (
	defaultSize    = 800
	defaultOverlap = 100
)

// ChunkPages splits each page and returns chunks ordered by page, then by
// intra-page split order. Empty pages produce no chunks. The result is
// deterministic for identical input.
func ChunkPages(docID string, pages []loader.Page, opts Options) []Chunk {
	opts = opts.normalize()
	var chunks []Chunk
	for _, p := range pages {
		for _, piece := range splitText(p.Text, opts) {
			chunks = append(chunks, Chunk{
				Text:   piece,
				Source: docID,
				Page:   p.Number,
				Index:  len(chunks),
			})
		}
	}
	return chunks
}

func (o Options) normalize() Options {
	if o.Size <= 0 {
		o.Size = defaultSize
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.Size {
		o.Overlap = o.Size / 2
	}
	return o
}

// splitText cuts text into pieces of at most opts.Size characters. Cuts
// prefer paragraph breaks, then sentence or word boundaries, falling back to
// a fixed window; adjacent pieces share opts.Overlap characters of context.
func splitText(text string, opts Options) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= opts.Size {
		return []string{text}
	}

	var pieces []string
	pos := 0
	for pos < len(text) {
		end := pos + opts.Size
		if end >= len(text) {
			if piece := strings.TrimSpace(text[pos:]); piece != "" {
				pieces = append(pieces, piece)
			}
			break
		}
		cut := findCut(text, pos, end)
		if piece := strings.TrimSpace(text[pos:cut]); piece != "" {
			pieces = append(pieces, piece)
		}
		next := cut - opts.Overlap
		if next <= pos {
			next = cut
		}
		pos = next
	}
	return pieces
}

// findCut picks a boundary in text[pos:end], looking only in the back half of
// the window so pieces never degenerate.
func findCut(text string, pos, end int) int {
	window := text[pos:end]
	floor := len(window) / 2

	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if i := strings.LastIndex(window, sep); i > floor {
			return pos + i + len(sep)
		}
	}
	return end
}
