package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedRenderer memoizes successful renders of an underlying Renderer.
// Failures are not cached.
type CachedRenderer struct {
	next  Renderer
	cache *expirable.LRU[string, string]
}

// NewCachedRenderer wraps next with an LRU of the given size. A ttl of zero
// keeps entries until they are evicted.
func NewCachedRenderer(next Renderer, size int, ttl time.Duration) *CachedRenderer {
	return &CachedRenderer{
		next:  next,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// Render implements Renderer.
func (r *CachedRenderer) Render(ctx context.Context, dot string, engine Engine) (string, error) {
	key := cacheKey(dot, engine)
	if svg, ok := r.cache.Get(key); ok {
		return svg, nil
	}
	svg, err := r.next.Render(ctx, dot, engine)
	if err != nil {
		return "", err
	}
	r.cache.Add(key, svg)
	return svg, nil
}

// Len returns the number of cached renders.
func (r *CachedRenderer) Len() int {
	return r.cache.Len()
}

func cacheKey(dot string, engine Engine) string {
	sum := sha256.Sum256([]byte(dot))
	return string(engine) + ":" + hex.EncodeToString(sum[:])
}
