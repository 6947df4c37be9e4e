// Package cache implements the memoizing model wrapper described in
// spec.md §4.3, grounded on the teacher's own admission-without-eviction
// philosophy (the teacher's MCTS keeps a similar cachedPolicies map with
// no eviction policy at all).
package cache

import (
	"sync"

	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/model"
	"github.com/pkg/errors"
)

// Cached wraps an inner model and memoizes (value, policy) by the game's
// hash. It never evicts: once full, a miss is computed but not inserted.
// Features are unsupported through a Cached wrapper (only value+policy are
// memoized), and Swap is a documented no-op.
type Cached[G game.Game] struct {
	inner       model.Model[G]
	maxCacheLen int

	mu      sync.Mutex
	entries map[uint64]model.Prediction

	hits, misses int64
}

var _ model.Model[game.Game] = &Cached[game.Game]{}

// New wraps inner with a cache admitting at most maxCacheLen entries.
func New[G game.Game](inner model.Model[G], maxCacheLen int) *Cached[G] {
	return &Cached[G]{
		inner:       inner,
		maxCacheLen: maxCacheLen,
		entries:     make(map[uint64]model.Prediction),
	}
}

func (c *Cached[G]) Apply(g G) (model.Prediction, error) {
	h := g.Hash()

	c.mu.Lock()
	pred, ok := c.entries[h]
	c.mu.Unlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return pred, nil
	}

	pred, err := c.inner.Apply(g)
	if err != nil {
		return model.Prediction{}, err
	}

	c.mu.Lock()
	c.misses++
	if len(c.entries) < c.maxCacheLen {
		c.entries[h] = pred
	}
	c.mu.Unlock()
	return pred, nil
}

// ApplyBatch is supported but discouraged: batching defeats the purpose
// of the cache, so it delegates sequentially to Apply per spec.md §4.3.
func (c *Cached[G]) ApplyBatch(gs []G) ([]model.Prediction, error) {
	return model.ApplyElementwise[G](c, gs)
}

// Swap is unsupported: the cache's identity is tied to the inner model's
// identity, so migrating backends is a no-op here. The returned error is
// non-fatal; callers should log it as a warning, not abort.
func (c *Cached[G]) Swap() (model.Model[G], error) {
	return c, errors.New("cache: swap is unsupported, returning the wrapper unchanged")
}

func (c *Cached[G]) Copy() model.Model[G] {
	clone := New[G](c.inner.Copy(), c.maxCacheLen)
	return clone
}

func (c *Cached[G]) BaseModel() model.Model[G]     { return c.inner.BaseModel() }
func (c *Cached[G]) PlayingModel() model.Model[G]  { return c }
func (c *Cached[G]) TrainingModel() model.Model[G] { return c.inner.TrainingModel() }
func (c *Cached[G]) NTasks() int                   { return c.inner.NTasks() }

// Features always returns nil: requesting features through a Cached
// wrapper is a programmer error, surfaced via FeaturesErr.
func (c *Cached[G]) Features() []model.FeatureDescriptor { return nil }

// FeaturesErr reports ErrFeatureUnsupported, the explicit failure mode
// spec.md §4.3 requires when a caller tries to pull feature heads through
// a caching wrapper.
func (c *Cached[G]) FeaturesErr() error { return model.ErrFeatureUnsupported }

// Stats reports hit/miss counters and the current cache size, used by
// spec.md §8's caching-determinism property tests.
func (c *Cached[G]) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.entries)
}
