// Package pipeline wires the document question-answering core: ingesting a
// PDF into chunks, a summary, and a searchable index; answering questions
// grounded in the indexed chunks; and surfacing related published work.
//
// The pipeline is session-agnostic: callers address documents by id, and
// every expensive dependency (models, index store, cache) is injected once at
// construction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"paperqa/internal/answer"
	"paperqa/internal/cache"
	"paperqa/internal/chunker"
	"paperqa/internal/embeddings"
	"paperqa/internal/index"
	"paperqa/internal/loader"
	"paperqa/internal/papers"
	"paperqa/internal/summarize"
	"paperqa/internal/tokens"
)

// ErrEmptyDocument means the PDF parsed but no page yielded any text. This is
// distinct from a document with some blank pages, which ingests fine.
var ErrEmptyDocument = errors.New("document has no extractable text")

// Params carries the pipeline's dependencies and tunables.
type Params struct {
	Log          *slog.Logger
	ChunkOptions chunker.Options
	Thresholds   tokens.Thresholds
	Summarizer   *summarize.Summarizer
	Indexer      index.Indexer
	Retriever    index.Retriever
	Store        index.Store
	Answerer     *answer.Answerer
	Finder       *papers.Finder
	Embedder     embeddings.Embedder // nil under the lexical strategy
	Cache        cache.Cache
	CacheTTL     time.Duration
	TopK         int
}

type Pipeline struct {
	p Params
}

func New(p Params) *Pipeline {
	if p.TopK <= 0 {
		p.TopK = index.DefaultTopK
	}
	if p.Cache == nil {
		p.Cache = cache.NewNoOpCache()
	}
	return &Pipeline{p: p}
}

// IngestResult reports ingestion stats for one document.
type IngestResult struct {
	DocumentID      string          `json:"document_id"`
	PageCount       int             `json:"page_count"`
	ChunkCount      int             `json:"chunk_count"`
	Summary         string          `json:"summary"`
	SummaryDegraded bool            `json:"summary_degraded,omitempty"`
	SizeCategory    tokens.Category `json:"size_category"`
	TokenEstimate   int             `json:"token_estimate"`
	SizeNote        string          `json:"size_note"`
}

// Ingest turns a PDF into chunks, a summary, and a persisted index. The
// document id is derived from the filename; re-ingesting the same filename
// rebuilds the index wholesale and drops any cached answers for it.
//
// Only parse-level failures abort: an unreadable PDF returns a LoadError, a
// fully text-free one ErrEmptyDocument. Summarization and related metadata
// are best-effort and degrade without failing the ingestion.
func (pl *Pipeline) Ingest(ctx context.Context, content []byte, filename string) (IngestResult, error) {
	pages, err := loader.LoadPDF(filename, content)
	if err != nil {
		return IngestResult{}, err
	}
	return pl.IngestPages(ctx, DocumentID(filename), pages)
}

// IngestPages ingests an already-parsed document. Callers that extract pages
// themselves (or receive them over a queue) skip the PDF step.
func (pl *Pipeline) IngestPages(ctx context.Context, docID string, pages []loader.Page) (IngestResult, error) {
	log := pl.p.Log.With("document_id", docID)

	if !loader.HasText(pages) {
		return IngestResult{}, fmt.Errorf("%w: %s", ErrEmptyDocument, docID)
	}

	chunks := chunker.ChunkPages(docID, pages, pl.p.ChunkOptions)
	fullText := loader.FullText(pages)

	category, estimate := tokens.Classify(fullText, pl.p.Thresholds)
	log.Info("document classified", "category", category, "tokens", estimate, "pages", len(pages), "chunks", len(chunks))

	sum := pl.p.Summarizer.Summarize(ctx, docID, fullText)
	if sum.Degraded {
		log.Warn("summary degraded", "summary", sum.Text)
	}

	meta := index.Meta{
		Summary:   sum.Text,
		Citations: papers.ExtractCitations(fullText),
		DOIs:      papers.ExtractDOIs(fullText),
	}
	if pl.p.Embedder != nil {
		if vec, err := pl.p.Embedder.Embed(ctx, sum.Text); err != nil {
			log.Warn("summary embedding failed, related-work ranking will recompute", "err", err)
		} else {
			meta.SummaryVector = vec
		}
	}

	if err := pl.p.Indexer.Index(ctx, docID, chunks, meta); err != nil {
		return IngestResult{}, fmt.Errorf("index %s: %w", docID, err)
	}

	// The old index generation is gone; stale answers must go with it.
	if err := pl.p.Cache.InvalidateDocument(ctx, docID); err != nil {
		log.Warn("cache invalidation failed", "err", err)
	}

	return IngestResult{
		DocumentID:      docID,
		PageCount:       len(pages),
		ChunkCount:      len(chunks),
		Summary:         sum.Text,
		SummaryDegraded: sum.Degraded,
		SizeCategory:    category,
		TokenEstimate:   estimate,
		SizeNote:        tokens.SizeMessage(category),
	}, nil
}

// AskResult is a grounded answer with the chunk sources that informed it.
type AskResult struct {
	Answer  string         `json:"answer"`
	Sources []cache.Source `json:"sources,omitempty"`
	Cached  bool           `json:"cached"`
}

// Ask retrieves the most relevant chunks for question from docID's index and
// produces a grounded answer. Returns index.ErrIndexNotFound when the
// document was never ingested; model failures surface as an apology string in
// the answer, never as an error.
func (pl *Pipeline) Ask(ctx context.Context, question, docID string) (AskResult, error) {
	key := cache.Key(docID, question, pl.p.TopK)
	if cached, err := pl.p.Cache.GetAnswer(ctx, key); err == nil && cached != nil {
		pl.p.Log.Info("answer cache hit", "document_id", docID)
		return AskResult{Answer: cached.Text, Sources: cached.Sources, Cached: true}, nil
	}

	results, err := pl.p.Retriever.Retrieve(ctx, question, docID, pl.p.TopK)
	if err != nil {
		return AskResult{}, err
	}

	ans := pl.p.Answerer.Answer(ctx, question, results)
	sources := buildSources(results)

	if err := pl.p.Cache.SetAnswer(ctx, key, &cache.Answer{Text: ans, Sources: sources}, pl.p.CacheTTL); err != nil {
		pl.p.Log.Warn("failed to cache answer", "err", err)
	}

	return AskResult{Answer: ans, Sources: sources}, nil
}

// RelatedResult bundles discovered papers with citations extracted from the
// document itself.
type RelatedResult struct {
	Papers    []papers.RelatedPaper `json:"papers"`
	Citations []string              `json:"citations,omitempty"`
	DOIs      []string              `json:"dois,omitempty"`
}

// Related finds published work related to an ingested document, reusing the
// summary and summary embedding persisted at ingestion time.
func (pl *Pipeline) Related(ctx context.Context, docID string) (RelatedResult, error) {
	rec, err := pl.p.Store.Load(ctx, docID)
	if err != nil {
		return RelatedResult{}, err
	}
	return RelatedResult{
		Papers:    pl.p.Finder.Find(ctx, rec.Summary, rec.SummaryVector),
		Citations: rec.Citations,
		DOIs:      rec.DOIs,
	}, nil
}

// FindRelated runs discovery for a caller-supplied summary, without requiring
// an ingested document. embedding may be nil; fullText, when given, also
// yields extracted citations.
func (pl *Pipeline) FindRelated(ctx context.Context, summary string, embedding embeddings.Vector, fullText string) RelatedResult {
	res := RelatedResult{Papers: pl.p.Finder.Find(ctx, summary, embedding)}
	if fullText != "" {
		res.Citations = papers.ExtractCitations(fullText)
		res.DOIs = papers.ExtractDOIs(fullText)
	}
	return res
}

// BatchItem is one upload in a batch ingestion.
type BatchItem struct {
	Filename string
	Content  []byte
}

// BatchResult pairs a batch item's outcome with its error, if any.
type BatchResult struct {
	Filename string
	Result   IngestResult
	Err      error
}

// IngestBatch ingests documents concurrently. Documents share no mutable
// state (ids map to distinct index paths), so the only coordination needed is
// the concurrency cap. Results keep input order.
func (pl *Pipeline) IngestBatch(ctx context.Context, items []BatchItem, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = 4
	}
	results := make([]BatchResult, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, item := range items {
		g.Go(func() error {
			res, err := pl.Ingest(ctx, item.Content, item.Filename)
			results[i] = BatchResult{Filename: item.Filename, Result: res, Err: err}
			return nil // per-item errors are reported, not fatal to the batch
		})
	}
	_ = g.Wait()
	return results
}

func buildSources(results []index.ScoredChunk) []cache.Source {
	const previewLen = 160
	out := make([]cache.Source, len(results))
	for i, r := range results {
		preview := r.Chunk.Text
		if len(preview) > previewLen {
			preview = preview[:previewLen] + "..."
		}
		out[i] = cache.Source{
			Page:    r.Chunk.Page,
			Index:   r.Chunk.Index,
			Score:   r.Score,
			Preview: preview,
		}
	}
	return out
}

// DocumentID derives a stable, filesystem-safe identifier from a filename:
// the base name without extension, with path and whitespace characters
// replaced. Identical filenames map to the same id, which is what gives
// re-ingestion its overwrite semantics.
func DocumentID(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	id := b.String()
	if id == "" || strings.Trim(id, "_.") == "" {
		return "document"
	}
	return id
}
