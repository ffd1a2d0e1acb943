package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of embeddings to keep.
// At 384 dimensions * 4 bytes * 1000 entries this is under 2MB.
const DefaultCacheSize = 1000

// CachedEncoder wraps an Encoder with LRU caching so repeated queries
// skip recomputation.
type CachedEncoder struct {
	inner Encoder
	cache *lru.Cache[string, []float32]
}

// Verify interface implementation at compile time
var _ Encoder = (*CachedEncoder)(nil)

// NewCachedEncoder creates a cached encoder wrapping inner.
func NewCachedEncoder(inner Encoder, cacheSize int) *CachedEncoder {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedEncoder{inner: inner, cache: cache}
}

// cacheKey hashes text and model name so a model switch never serves
// stale vectors.
func (c *CachedEncoder) cacheKey(text string) string {
	combined := text + "\x00" + c.inner.ModelName()
	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:])
}

// Embed returns the cached embedding when available, otherwise
// computes and caches it.
func (c *CachedEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, vec)
	return vec, nil
}

// EmbedBatch embeds texts, consulting the cache per text.
func (c *CachedEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	uncachedIndices := make([]int, 0, len(texts))
	uncachedTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			results[i] = vec
		} else {
			uncachedIndices = append(uncachedIndices, i)
			uncachedTexts = append(uncachedTexts, text)
		}
	}

	if len(uncachedTexts) == 0 {
		return results, nil
	}

	newEmbeddings, err := c.inner.EmbedBatch(ctx, uncachedTexts)
	if err != nil {
		return nil, err
	}

	for j, idx := range uncachedIndices {
		results[idx] = newEmbeddings[j]
		c.cache.Add(c.cacheKey(texts[idx]), newEmbeddings[j])
	}

	return results, nil
}

// Dimensions returns the embedding dimension (passthrough).
func (c *CachedEncoder) Dimensions() int {
	return c.inner.Dimensions()
}

// ModelName returns the model identifier (passthrough).
func (c *CachedEncoder) ModelName() string {
	return c.inner.ModelName()
}

// Available checks readiness (passthrough).
func (c *CachedEncoder) Available(ctx context.Context) bool {
	return c.inner.Available(ctx)
}

// Close closes the inner encoder.
func (c *CachedEncoder) Close() error {
	return c.inner.Close()
}

// Inner returns the wrapped encoder.
func (c *CachedEncoder) Inner() Encoder {
	return c.inner
}
