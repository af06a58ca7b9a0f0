package ai

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// CachingEmbedder memoizes single-text embeddings. Batch calls pass through
// uncached since they are only used for document chunks, which are embedded
// once per content hash anyway.
type CachingEmbedder struct {
	next  Embedder
	cache *ristretto.Cache[string, []float32]
}

var _ Embedder = (*CachingEmbedder)(nil)

// NewCachingEmbedder wraps next with a cache holding up to maxEntries vectors.
func NewCachingEmbedder(next Embedder, maxEntries int64) (*CachingEmbedder, error) {
	if next == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries, // one unit per cached vector
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &CachingEmbedder{next: next, cache: cache}, nil
}

// EmbedText returns the cached vector for text or computes and stores it.
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := c.cache.Get(text); ok {
		return vector, nil
	}
	vector, err := c.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vector, 1)
	return vector, nil
}

// EmbedTexts delegates to the wrapped embedder.
func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedTexts(ctx, texts)
}

// Wait blocks until pending cache writes are visible.
func (c *CachingEmbedder) Wait() {
	c.cache.Wait()
}

// Close stops the cache's background goroutines.
func (c *CachingEmbedder) Close() {
	c.cache.Close()
}
