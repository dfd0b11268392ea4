package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/allegro/bigcache/v3"
)

// CachingTransformer answers repeat uploads of identical bytes from memory.
// Placeholder results are never cached so a recovered provider is retried.
type CachingTransformer struct {
	next  Transformer
	cache *bigcache.BigCache
}

func NewCachingTransformer(ctx context.Context, next Transformer, ttl time.Duration) (*CachingTransformer, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 16
	cfg.MaxEntriesInWindow = 1024
	cfg.HardMaxCacheSize = 16 // megabytes
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create transform cache: %w", err)
	}
	return &CachingTransformer{next: next, cache: cache}, nil
}

func (c *CachingTransformer) Transform(ctx context.Context, img Image) (Result, error) {
	key := img.Digest()
	if !img.Fresh {
		if res, ok := c.lookup(ctx, key); ok {
			return res, nil
		}
	}

	res, err := c.next.Transform(ctx, img)
	if err != nil {
		return Result{}, err
	}
	if res.Provider != FallbackProvider {
		if raw, err := json.Marshal(res); err == nil {
			if err := c.cache.Set(key, raw); err != nil {
				slog.WarnContext(ctx, "Transform cache store failed", "error", err)
			}
		}
	}
	return res, nil
}

func (c *CachingTransformer) lookup(ctx context.Context, key string) (Result, bool) {
	raw, err := c.cache.Get(key)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			slog.WarnContext(ctx, "Transform cache lookup failed", "error", err)
		}
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false
	}
	res.Cached = true
	return res, true
}

// Close stops the cache's cleanup goroutine.
func (c *CachingTransformer) Close() error {
	return c.cache.Close()
}
