package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached decorates a Provider with an LRU cache keyed by the exact text.
// Retrieval re-embeds the same query strings often (every turn builds a
// query from the current utterance), so a small cache removes most remote
// calls from the turn path.
type Cached struct {
	inner Provider
	cache *lru.Cache[string, []float64]
}

var _ Provider = (*Cached)(nil)

// NewCached wraps inner with an LRU cache of the given size (default 1024
// when size <= 0).
func NewCached(inner Provider, size int) (*Cached, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, delegating to the inner provider
// on a miss. Errors are never cached.
func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(text, vec)
	return vec, nil
}

// Dimension returns the inner provider's dimension.
func (c *Cached) Dimension() int { return c.inner.Dimension() }

// GetModel returns the inner provider's model name.
func (c *Cached) GetModel() string { return c.inner.GetModel() }
