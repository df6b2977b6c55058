package papers

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"paperqa/internal/embeddings"
)

// Finder merges candidates from multiple sources, re-ranks them by embedding
// similarity to the document summary, and deduplicates by normalized title.
type Finder struct {
	sources  []Source
	embedder embeddings.Embedder
	log      *slog.Logger
	max      int
}

const (
	defaultMax = 7

	// queryWords is how much of the summary's opening feeds the keyword
	// query sent to bibliographic APIs.
	queryWords = 30

	// perSourceLimit over-fetches so ranking has candidates to drop.
	perSourceLimit = 8
)

// NewFinder builds a finder. embedder may be nil; ranking then falls back to
// source order.
func NewFinder(sources []Source, embedder embeddings.Embedder, log *slog.Logger, max int) *Finder {
	if max <= 0 {
		max = defaultMax
	}
	return &Finder{sources: sources, embedder: embedder, log: log, max: max}
}

// Find returns up to max related papers for the document described by
// summary. docVec is the summary embedding computed at ingestion; when nil it
// is recomputed from the summary. Every failure path degrades: a failed
// source is skipped, a failed embed leaves a zero score, and a total wipeout
// returns an empty list, which callers must treat as a normal outcome.
func (f *Finder) Find(ctx context.Context, summary string, docVec embeddings.Vector) []RelatedPaper {
	query := firstWords(summary, queryWords)
	if query == "" {
		return nil
	}

	var candidates []RelatedPaper
	for _, src := range f.sources {
		found, err := src.Search(ctx, query, perSourceLimit)
		if err != nil {
			f.log.Warn("paper source failed, continuing", "source", src.Name(), "err", err)
			continue
		}
		candidates = append(candidates, found...)
	}
	if len(candidates) == 0 {
		return nil
	}

	for i := range candidates {
		if strings.TrimSpace(candidates[i].Summary) == "" {
			candidates[i].Summary = NoAbstract
		}
	}

	f.rank(ctx, summary, docVec, candidates)
	deduped := dedupeByTitle(candidates)
	if len(deduped) > f.max {
		deduped = deduped[:f.max]
	}
	return deduped
}

func (f *Finder) rank(ctx context.Context, summary string, docVec embeddings.Vector, candidates []RelatedPaper) {
	if f.embedder == nil {
		return
	}
	if len(docVec) == 0 {
		vec, err := f.embedder.Embed(ctx, summary)
		if err != nil {
			f.log.Warn("summary embed failed, keeping source order", "err", err)
			return
		}
		docVec = vec
	}

	for i := range candidates {
		vec, err := f.embedder.Embed(ctx, candidates[i].Title+" "+candidates[i].Summary)
		if err != nil {
			f.log.Warn("candidate embed failed", "title", candidates[i].Title, "err", err)
			continue
		}
		candidates[i].Score = embeddings.CosineSimilarity(docVec, vec)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// dedupeByTitle drops repeats of the same normalized title, keeping the
// higher-ranked instance.
func dedupeByTitle(candidates []RelatedPaper) []RelatedPaper {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]RelatedPaper, 0, len(candidates))
	for _, p := range candidates {
		key := normalizeTitle(p.Title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
