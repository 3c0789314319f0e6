package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	"go.uber.org/zap"
)

// Store persists embeddings across runs, keyed by CacheKey.
type Store interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Put(ctx context.Context, key string, vec []float32) error
}

// CachedEmbedder serves repeat texts from an LRU cache and, when set, a
// persistent Store. Store failures are logged and treated as misses.
type CachedEmbedder struct {
	inner  Embedder
	lru    *EmbeddingCache
	store  Store
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// CachedOption configures a CachedEmbedder.
type CachedOption func(*CachedEmbedder)

// WithStore adds a persistent store behind the LRU cache.
func WithStore(s Store) CachedOption {
	return func(c *CachedEmbedder) { c.store = s }
}

// WithCacheLogger sets the logger for store failures.
func WithCacheLogger(l *zap.Logger) CachedOption {
	return func(c *CachedEmbedder) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCachedEmbedder wraps inner with an LRU cache of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int, opts ...CachedOption) *CachedEmbedder {
	c := &CachedEmbedder{
		inner:  inner,
		lru:    NewEmbeddingCache(capacity),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey returns the cache key of text under the model called name.
func CacheKey(name, text string) string {
	sum := sha256.Sum256([]byte(text))
	return name + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	if v, ok := c.lru.Get(key); ok {
		return v, true
	}
	if c.store == nil {
		return nil, false
	}
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("embedding store read failed", zap.Error(err))
		return nil, false
	}
	if !ok || len(v) != c.inner.Dimensions() {
		return nil, false
	}
	c.lru.Set(key, v)
	return v, true
}

func (c *CachedEmbedder) remember(ctx context.Context, key string, v []float32) {
	c.lru.Set(key, v)
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, key, v); err != nil {
		c.logger.Warn("embedding store write failed", zap.Error(err))
	}
}

// Embed returns the cached embedding of text, computing it on a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(c.inner.Name(), text)
	if v, ok := c.lookup(ctx, key); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, key, v)
	return v, nil
}

// EmbedBatch serves hits from the cache and embeds the misses in one batch.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		keys[i] = CacheKey(c.inner.Name(), text)
		if v, ok := c.lookup(ctx, keys[i]); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	c.hits.Add(int64(len(texts) - len(missIdx)))
	c.misses.Add(int64(len(missIdx)))
	if len(missTexts) == 0 {
		return out, nil
	}
	computed, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = computed[j]
		c.remember(ctx, keys[i], computed[j])
	}
	return out, nil
}

// Stats returns the cache hit and miss counts.
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Dimensions returns the wrapped embedder's dimension.
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// Name returns the wrapped embedder's name.
func (c *CachedEmbedder) Name() string { return c.inner.Name() }

// Close closes the wrapped embedder. The store is owned by the caller.
func (c *CachedEmbedder) Close() error { return c.inner.Close() }
