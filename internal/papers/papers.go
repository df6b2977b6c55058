// Package papers discovers published work related to a document, querying
// bibliographic sources and ranking candidates against the document's own
// summary embedding.
package papers

import "context"

// Provenance tags. SourceLLMGenerated marks papers proposed by a language
// model: these may be hallucinated and must never be presented as verified
// citations, so the tag is set at construction and survives merging, ranking,
// and deduplication untouched.
const (
	SourceArxiv           = "arXiv"
	SourceSemanticScholar = "SemanticScholar"
	SourceLLMGenerated    = "LLM-generated"
)

// NoAbstract is the placeholder summary for candidates without one.
const NoAbstract = "No abstract available"

// RelatedPaper is one candidate from any discovery strategy. Link may be
// empty (discovery is best-effort); Score is zero for strategies that do not
// rank.
type RelatedPaper struct {
	Title   string  `json:"title"`
	Link    string  `json:"link,omitempty"`
	Summary string  `json:"summary"`
	Authors string  `json:"authors,omitempty"`
	Year    int     `json:"year,omitempty"`
	Score   float32 `json:"score,omitempty"`
	Source  string  `json:"source"`
}

// Source is one bibliographic backend.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]RelatedPaper, error)
}
