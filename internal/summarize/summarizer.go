// Package summarize produces short topical summaries of full documents,
// mapping and reducing over slices when a document exceeds the safe
// single-call context size.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"paperqa/internal/llm"
	"paperqa/internal/tokens"
)

// Options bounds summarization cost.
type Options struct {
	MaxChars  int // single-call ceiling in characters (~MaxChars/4 tokens)
	MaxSlices int // how many leading slices of an oversized document to summarize
}

const (
	defaultMaxChars  = 20000
	defaultMaxSlices = 3
)

// Result carries the summary text and whether it was produced on a degraded
// path (partial failures or fallbacks). Degraded results are still usable;
// callers may surface them as lower-confidence.
type Result struct {
	Text     string
	Degraded bool
}

// Summarizer is best-effort: it never returns an error, because a missing
// summary must not abort ingestion.
type Summarizer struct {
	llm  llm.Client
	log  *slog.Logger
	opts Options
}

func New(client llm.Client, log *slog.Logger, opts Options) *Summarizer {
	if opts.MaxChars <= 0 {
		opts.MaxChars = defaultMaxChars
	}
	if opts.MaxSlices <= 0 {
		opts.MaxSlices = defaultMaxSlices
	}
	return &Summarizer{llm: client, log: log, opts: opts}
}

const systemPrompt = "You are an expert in analyzing academic documents."

// Summarize returns a 3-4 sentence topical summary of fullText. Documents
// within the ceiling get a single model call; larger documents are sliced,
// the leading slices summarized independently, and the partials reduced into
// a final summary. Later slices are dropped deliberately to bound cost.
func (s *Summarizer) Summarize(ctx context.Context, docName, fullText string) Result {
	if len(fullText) <= s.opts.MaxChars {
		return s.summarizeSmall(ctx, docName, fullText)
	}
	return s.summarizeLarge(ctx, docName, fullText)
}

func (s *Summarizer) summarizeSmall(ctx context.Context, docName, fullText string) Result {
	user := fmt.Sprintf(`Summarize the core topic, field, and methods described in the following document text.
The summary must be 3-4 sentences and strictly about the topic.

Document:
%s

Return only the topic summary.`, fullText)

	out, err := s.llm.Complete(ctx, systemPrompt, user)
	if err != nil {
		s.log.Warn("summary call failed", "doc", docName, "err", err)
		return Result{Text: s.placeholder(docName), Degraded: true}
	}
	return Result{Text: strings.TrimSpace(out)}
}

func (s *Summarizer) summarizeLarge(ctx context.Context, docName, fullText string) Result {
	slices := tokens.SliceByChars(fullText, s.opts.MaxChars)
	want := len(slices)
	if want > s.opts.MaxSlices {
		want = s.opts.MaxSlices
	}

	var partials []string
	for i := 0; i < want; i++ {
		user := fmt.Sprintf(`Summarize the key topics and methods in this section of a research document:

%s

Provide a brief 2-3 sentence summary focusing on the main topic.`, slices[i])

		out, err := s.llm.Complete(ctx, systemPrompt, user)
		if err != nil {
			s.log.Warn("partial summary failed, skipping slice", "doc", docName, "slice", i, "err", err)
			continue
		}
		partials = append(partials, strings.TrimSpace(out))
	}

	if len(partials) == 0 {
		return Result{Text: s.placeholder(docName), Degraded: true}
	}

	combined := strings.Join(partials, " ")
	user := fmt.Sprintf(`Based on these section summaries of a research paper, provide a comprehensive 3-4 sentence summary of the overall document:

%s

Focus on: main topic, research field, and key methodology.
Return only the summary, no preamble.`, combined)

	out, err := s.llm.Complete(ctx, systemPrompt, user)
	if err != nil {
		s.log.Warn("summary reduction failed, returning concatenated partials", "doc", docName, "err", err)
		return Result{Text: combined, Degraded: true}
	}
	return Result{Text: strings.TrimSpace(out), Degraded: len(partials) < want}
}

// placeholder is the deterministic text returned when no model call succeeds.
func (s *Summarizer) placeholder(docName string) string {
	return fmt.Sprintf("Summary unavailable for %s due to processing errors.", docName)
}
