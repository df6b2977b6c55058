package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"paperqa/internal/chunker"
	"paperqa/internal/embeddings"
)

// VectorStrategy embeds chunks at indexing time and ranks by cosine
// similarity at retrieval time. The same embedder must be used for both.
type VectorStrategy struct {
	store    Store
	embedder embeddings.Embedder
	model    string
}

func NewVectorStrategy(store Store, embedder embeddings.Embedder, model string) *VectorStrategy {
	return &VectorStrategy{store: store, embedder: embedder, model: model}
}

func (v *VectorStrategy) Index(ctx context.Context, docID string, chunks []chunker.Chunk, meta Meta) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := v.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks for %s: %w", docID, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks for %s: got %d vectors for %d chunks", docID, len(vectors), len(chunks))
	}

	entries := make([]Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = Entry{Chunk: c, Vector: vectors[i]}
	}
	rec := Record{
		DocumentID: docID,
		Strategy:   StrategyVector,
		Model:      v.model,
		CreatedAt:  time.Now().UTC(),
		Meta:       meta,
		Entries:    entries,
	}
	return v.store.Save(ctx, rec)
}

func (v *VectorStrategy) Retrieve(ctx context.Context, question, docID string, k int) ([]ScoredChunk, error) {
	rec, err := v.store.Load(ctx, docID)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = DefaultTopK
	}

	qVec, err := v.embedder.Embed(ctx, question)
	if err != nil {
		// Degrade to document order rather than failing the whole ask.
		return headChunks(rec.Entries, k), nil
	}

	scored := make([]ScoredChunk, len(rec.Entries))
	for i, e := range rec.Entries {
		scored[i] = ScoredChunk{Chunk: e.Chunk, Score: embeddings.CosineSimilarity(qVec, e.Vector)}
	}
	sortByScore(scored)
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// sortByScore orders by descending score; the stable sort keeps original
// chunk order on ties so identical inputs give identical results.
func sortByScore(scored []ScoredChunk) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}

func headChunks(entries []Entry, k int) []ScoredChunk {
	if len(entries) < k {
		k = len(entries)
	}
	out := make([]ScoredChunk, k)
	for i := 0; i < k; i++ {
		out[i] = ScoredChunk{Chunk: entries[i].Chunk}
	}
	return out
}
