package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/go-scripts/reviews/pkg/common"
)

const cacheKeyPrefix = "reviews:selectors:"

// CacheObserver is told about cache lookups
type CacheObserver interface {
	CacheResult(hit bool)
}

// CachingInferrer remembers the selectors inferred for a page structure in
// Redis. Redis failures are logged and never fail the inference.
type CachingInferrer struct {
	next     Inferrer
	rdb      *redis.Client
	ttl      time.Duration
	logger   *log.Logger
	observer CacheObserver
}

// NewCachingInferrer wraps next. A zero ttl keeps entries forever.
func NewCachingInferrer(next Inferrer, rdb *redis.Client, ttl time.Duration, logger *log.Logger) *CachingInferrer {
	if logger == nil {
		logger = log.Default()
	}
	return &CachingInferrer{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.WithPrefix("cache"),
	}
}

// WithObserver reports hits and misses to o
func (c *CachingInferrer) WithObserver(o CacheObserver) *CachingInferrer {
	c.observer = o
	return c
}

func (c *CachingInferrer) Infer(ctx context.Context, structure common.PageStructure) (common.SelectorMap, error) {
	key, err := CacheKey(structure)
	if err != nil {
		return c.next.Infer(ctx, structure)
	}

	if sel, ok := c.lookup(ctx, key); ok {
		c.observe(true)
		return sel, nil
	}
	c.observe(false)

	sel, err := c.next.Infer(ctx, structure)
	if err != nil {
		return sel, err
	}

	data, err := json.Marshal(sel)
	if err == nil {
		err = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("Failed to cache selectors", "key", key, "err", err)
	}
	return sel, nil
}

func (c *CachingInferrer) lookup(ctx context.Context, key string) (common.SelectorMap, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Selector cache lookup failed", "key", key, "err", err)
		}
		return common.SelectorMap{}, false
	}

	var sel common.SelectorMap
	if err := json.Unmarshal(data, &sel); err != nil {
		c.logger.Warn("Discarding corrupt cache entry", "key", key, "err", err)
		return common.SelectorMap{}, false
	}
	return sel, true
}

func (c *CachingInferrer) observe(hit bool) {
	if c.observer != nil {
		c.observer.CacheResult(hit)
	}
}

// CacheKey derives the Redis key for a page structure
func CacheKey(structure common.PageStructure) (string, error) {
	encoded, err := json.Marshal(structure)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}
