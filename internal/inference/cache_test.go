package inference

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/reviews/internal/errs"
	"github.com/go-scripts/reviews/pkg/common"
)

type countingInferrer struct {
	calls int
	sel   common.SelectorMap
	err   error
}

func (c *countingInferrer) Infer(_ context.Context, _ common.PageStructure) (common.SelectorMap, error) {
	c.calls++
	return c.sel, c.err
}

type hitRecorder struct{ hits, misses int }

func (h *hitRecorder) CacheResult(hit bool) {
	if hit {
		h.hits++
	} else {
		h.misses++
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachingInferrer(t *testing.T) {
	mr, rdb := newRedis(t)
	next := &countingInferrer{sel: common.SelectorMap{ReviewContainer: ".review", Rating: ".stars"}}
	hits := &hitRecorder{}

	cache := NewCachingInferrer(next, rdb, time.Hour, nil).WithObserver(hits)
	ctx := context.Background()

	first, err := cache.Infer(ctx, structure)
	require.NoError(t, err)
	second, err := cache.Infer(ctx, structure)
	require.NoError(t, err)

	assert.Equal(t, next.sel, first)
	assert.Equal(t, next.sel, second)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, hits.hits)
	assert.Equal(t, 1, hits.misses)

	key, err := CacheKey(structure)
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, err = cache.Infer(ctx, structure)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachingInferrerDoesNotCacheErrors(t *testing.T) {
	mr, rdb := newRedis(t)
	next := &countingInferrer{err: &errs.ExternalServiceError{Service: ServiceName, Err: errors.New("boom")}}

	cache := NewCachingInferrer(next, rdb, time.Hour, nil)

	_, err := cache.Infer(context.Background(), structure)
	assert.Equal(t, errs.KindExternalService, errs.Kind(err))

	key, _ := CacheKey(structure)
	assert.False(t, mr.Exists(key))
}

func TestCachingInferrerFallsThroughWhenRedisIsDown(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	next := &countingInferrer{sel: common.SelectorMap{ReviewContainer: ".review"}}
	cache := NewCachingInferrer(next, rdb, time.Hour, nil)

	sel, err := cache.Infer(context.Background(), structure)
	require.NoError(t, err)
	assert.Equal(t, ".review", sel.ReviewContainer)
	assert.Equal(t, 1, next.calls)
}

func TestCachingInferrerIgnoresCorruptEntries(t *testing.T) {
	mr, rdb := newRedis(t)
	key, err := CacheKey(structure)
	require.NoError(t, err)
	require.NoError(t, mr.Set(key, "{not json"))

	next := &countingInferrer{sel: common.SelectorMap{ReviewContainer: ".review"}}
	cache := NewCachingInferrer(next, rdb, 0, nil)

	sel, err := cache.Infer(context.Background(), structure)
	require.NoError(t, err)
	assert.Equal(t, ".review", sel.ReviewContainer)

	stored, err := mr.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reviewContainer":".review","reviewTitle":"","reviewText":"","rating":"","reviewerName":""}`, stored)
}

func TestCacheKeyDependsOnStructure(t *testing.T) {
	a, err := CacheKey(structure)
	require.NoError(t, err)

	other := structure
	other.HasReviewContainer = false
	b, err := CacheKey(other)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^reviews:selectors:[0-9a-f]{64}$`, a)
}
