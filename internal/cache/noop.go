package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing. Used when Redis is
// not configured: all operations succeed but every read is a miss.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetAnswer(ctx context.Context, key string) (*Answer, error) {
	return nil, nil
}

func (c *NoOpCache) SetAnswer(ctx context.Context, key string, ans *Answer, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) InvalidateDocument(ctx context.Context, docID string) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
