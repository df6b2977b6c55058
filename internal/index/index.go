// Package index builds, persists, and queries per-document chunk indexes.
// Two retrieval strategies (vector similarity and lexical overlap) sit behind
// one interface so the pipeline has a single code path.
package index

import (
	"context"
	"errors"
	"time"

	"paperqa/internal/chunker"
	"paperqa/internal/embeddings"
)

// ErrIndexNotFound is returned when retrieval targets a document id that was
// never ingested. Recoverable by the caller: ingest first.
var ErrIndexNotFound = errors.New("index not found")

// DefaultTopK is the retrieval depth used when the caller passes k <= 0.
const DefaultTopK = 5

// Strategy names as persisted in index records.
const (
	StrategyVector  = "vector"
	StrategyLexical = "lexical"
)

// Entry pairs a chunk with its embedding. Vector is nil under the lexical
// strategy.
type Entry struct {
	Chunk  chunker.Chunk     `json:"chunk"`
	Vector embeddings.Vector `json:"vector,omitempty"`
}

// Meta carries the document-level artifacts the ask/related operations need
// after ingestion: the topical summary, its embedding, and citations
// extracted from the full text.
type Meta struct {
	Summary       string            `json:"summary,omitempty"`
	SummaryVector embeddings.Vector `json:"summary_vector,omitempty"`
	Citations     []string          `json:"citations,omitempty"`
	DOIs          []string          `json:"dois,omitempty"`
}

// Record is the persisted index of one document. Records are created whole at
// ingestion and replaced whole on re-ingestion, never merged.
type Record struct {
	DocumentID string    `json:"document_id"`
	Strategy   string    `json:"strategy"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Meta
	Entries []Entry `json:"entries"`
}

// Store persists one Record per document id with overwrite semantics.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, docID string) (Record, error)
	Delete(ctx context.Context, docID string) error
}

// ScoredChunk is one retrieval hit.
type ScoredChunk struct {
	Chunk chunker.Chunk
	Score float32
}

// Indexer builds the persisted index for a document's chunks, storing the
// document metadata alongside it in the same overwrite.
type Indexer interface {
	Index(ctx context.Context, docID string, chunks []chunker.Chunk, meta Meta) error
}

// Retriever returns at most k chunks for a question in non-increasing score
// order, ties broken by original chunk order.
type Retriever interface {
	Retrieve(ctx context.Context, question, docID string, k int) ([]ScoredChunk, error)
}
