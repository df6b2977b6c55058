package index

import (
	"context"
	"strings"
	"time"

	"paperqa/internal/chunker"
)

// LexicalStrategy stores raw chunk text and scores by keyword overlap. It is
// the fallback when no embedding provider is available; indexing makes no
// external calls at all.
type LexicalStrategy struct {
	store Store
}

func NewLexicalStrategy(store Store) *LexicalStrategy {
	return &LexicalStrategy{store: store}
}

func (l *LexicalStrategy) Index(ctx context.Context, docID string, chunks []chunker.Chunk, meta Meta) error {
	entries := make([]Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = Entry{Chunk: c}
	}
	rec := Record{
		DocumentID: docID,
		Strategy:   StrategyLexical,
		CreatedAt:  time.Now().UTC(),
		Meta:       meta,
		Entries:    entries,
	}
	return l.store.Save(ctx, rec)
}

// Retrieve scores chunks by the number of question tokens they share,
// case-insensitive. When no chunk shares any token it returns the first k
// chunks in document order, so the answerer always has some context.
func (l *LexicalStrategy) Retrieve(ctx context.Context, question, docID string, k int) ([]ScoredChunk, error) {
	rec, err := l.store.Load(ctx, docID)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = DefaultTopK
	}

	qTokens := tokenSet(question)
	scored := make([]ScoredChunk, len(rec.Entries))
	anyHit := false
	for i, e := range rec.Entries {
		score := overlap(qTokens, e.Chunk.Text)
		if score > 0 {
			anyHit = true
		}
		scored[i] = ScoredChunk{Chunk: e.Chunk, Score: score}
	}

	if !anyHit {
		return headChunks(rec.Entries, k), nil
	}

	sortByScore(scored)
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		set[tok] = struct{}{}
	}
	return set
}

func overlap(qTokens map[string]struct{}, text string) float32 {
	var n int
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if _, inQ := qTokens[tok]; !inQ {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		n++
	}
	return float32(n)
}
