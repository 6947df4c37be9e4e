package mcts

import (
	"github.com/chewxy/math32"
	"github.com/cortexo/zerocore/game"
)

// extractPolicy turns root visit counts into the improved policy of
// spec.md §4.6: visits raised to 1/temperature and renormalized over the
// legal actions. temperature 0 hardens the distribution to a one-hot at
// the most-visited action (ties broken uniformly at random via
// shuffleLegal, rather than always favoring whichever action
// LegalActions happened to list first).
func extractPolicy[G game.Game](t *tree[G], legal []int, temperature float32, policyLen int) []float32 {
	visits := t.rootChildVisits(legal)
	policy := make([]float32, policyLen)

	if temperature == 0 {
		best := legal[0]
		var bestVisits int32 = -1
		for _, a := range shuffleLegal(legal) {
			if v := visits[a]; v > bestVisits {
				bestVisits = v
				best = a
			}
		}
		policy[best] = 1
		return policy
	}

	weighted := make([]float32, len(legal))
	var sum float32
	for i, a := range legal {
		w := math32.Pow(float32(visits[a]), 1/temperature)
		weighted[i] = w
		sum += w
	}

	if sum <= 0 {
		u := 1 / float32(len(legal))
		for _, a := range legal {
			policy[a] = u
		}
		return policy
	}

	for i, a := range legal {
		policy[a] = weighted[i] / sum
	}
	return policy
}
