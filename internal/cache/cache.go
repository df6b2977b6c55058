package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache stores grounded answers so repeated questions against an unchanged
// document skip the retrieval and model calls.
type Cache interface {
	// GetAnswer retrieves a cached answer by key; nil means miss.
	GetAnswer(ctx context.Context, key string) (*Answer, error)

	// SetAnswer stores an answer with TTL.
	SetAnswer(ctx context.Context, key string, ans *Answer, ttl time.Duration) error

	// InvalidateDocument removes cached answers for a document; called on
	// re-ingestion since the index was rebuilt.
	InvalidateDocument(ctx context.Context, docID string) error

	// Close closes the cache connection.
	Close() error
}

// Answer is a cached ask() result.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// Source identifies one chunk the answer drew on.
type Source struct {
	Page    int     `json:"page"`
	Index   int     `json:"index"`
	Score   float32 `json:"score"`
	Preview string  `json:"preview"` // truncated chunk text
}

// Key derives a stable cache key from the question, document, and depth. The
// document id is kept in the clear so invalidation can match by prefix.
func Key(docID, question string, k int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", docID, k, question)))
	return docID + ":" + hex.EncodeToString(sum[:16])
}
