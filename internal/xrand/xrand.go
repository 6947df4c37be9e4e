// Package xrand provides the process-wide pseudorandom source required by
// spec.md §6: rollouts, random players, softened-distribution sampling, and
// the shuffles used for MCTS tie-breaking and training-batch ordering all
// draw from this one seedable source instead of each
// constructing their own, the same role the teacher's package-level
// rand.New(rand.NewSource(...)) plays in game/mnk and mcts.MCTS.rand.
package xrand

import (
	"math/rand"
	"sync"
	"time"
)

var (
	mu  sync.Mutex
	src = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Seed reseeds the process-wide source. Intended for tests and for callers
// that want reproducible self-play runs.
func Seed(seed int64) {
	mu.Lock()
	defer mu.Unlock()
	src = rand.New(rand.NewSource(seed))
}

// Intn returns a non-negative pseudo-random int in [0, n).
func Intn(n int) int {
	mu.Lock()
	defer mu.Unlock()
	return src.Intn(n)
}

// Float32 returns a pseudo-random float32 in [0, 1).
func Float32() float32 {
	mu.Lock()
	defer mu.Unlock()
	return src.Float32()
}

// Shuffle shuffles n items in place using swap, via Fisher-Yates.
func Shuffle(n int, swap func(i, j int)) {
	mu.Lock()
	defer mu.Unlock()
	src.Shuffle(n, swap)
}

// SampleProportional draws an index from policy with probability
// proportional to its weight, via the standard cumulative-sum draw. Entries
// at or below zero are skipped. If rounding leaves the draw above the total
// weight, it returns the last positive-weight index; if no entry is
// positive it returns -1.
func SampleProportional(policy []float32) int {
	r := Float32()
	var cum float32
	last := -1
	for i, p := range policy {
		if p <= 0 {
			continue
		}
		cum += p
		last = i
		if r <= cum {
			return i
		}
	}
	return last
}

// New returns a fresh, independently seeded *rand.Rand derived from the
// process source, for callers (like per-goroutine MCTS workers) that need
// their own non-contended generator rather than funneling every draw
// through the shared mutex.
func New() *rand.Rand {
	mu.Lock()
	seed := src.Int63()
	mu.Unlock()
	return rand.New(rand.NewSource(seed))
}
