// Package model defines the abstract value/policy predictor contract that
// MCTS searches through, plus the baseline concrete models (random,
// rollout, dummy, and a trainable dual-headed network).
package model

import (
	"github.com/cortexo/zerocore/game"
	"github.com/pkg/errors"
)

var (
	// ErrShapeMismatch is returned when a model is applied to a game
	// whose representation shape is incompatible with what the model
	// expects.
	ErrShapeMismatch = errors.New("model: representation shape mismatch")
	// ErrFeatureUnsupported is returned when features are requested
	// through a wrapper that cannot provide them.
	ErrFeatureUnsupported = errors.New("model: feature heads unsupported by this model")
	// ErrLoad is returned by deserialization failures.
	ErrLoad = errors.New("model: failed to load serialized model")
)

// FeatureDescriptor names an auxiliary prediction head and how its loss is
// to be computed against a target.
type FeatureDescriptor struct {
	Name string
	Dim  int
	// Weight scales this feature's contribution to the composite loss
	// (the w_f term in spec.md §4.7).
	Weight float32
	// Loss computes the scalar loss for one example's predicted vs.
	// target feature vector.
	Loss func(pred, target []float32) float32
}

// Prediction is the output of applying a Model to one game state.
type Prediction struct {
	Value    float32   // in [-1, 1], from the current player's perspective
	Policy   []float32 // full-length, sums to 1 over legal actions once masked
	Features []float32 // concatenation of every feature head's output, in declaration order
}

// Model is the contract MCTS, self-play, and players consume. It is
// generic over the concrete game type G so that implementations can be
// type-narrowed to the games they know how to encode (Design Note 9.1).
type Model[G game.Game] interface {
	// Apply evaluates one state.
	Apply(g G) (Prediction, error)
	// ApplyBatch evaluates many states. The default behaviour (see
	// ApplyElementwise) maps Apply across the slice; wrappers may
	// override this for efficiency.
	ApplyBatch(gs []G) ([]Prediction, error)
	// Swap returns an equivalent model on the other backend. Models that
	// cannot migrate (e.g. the caching wrapper) return themselves
	// unchanged plus a non-nil but non-fatal warning error; callers
	// should not treat a non-nil Swap error as fatal.
	Swap() (Model[G], error)
	// Copy returns a deep copy with independent parameters.
	Copy() Model[G]
	// BaseModel navigates through wrappers to the innermost model.
	BaseModel() Model[G]
	// PlayingModel returns the model this wrapper would use for play
	// (by default, itself).
	PlayingModel() Model[G]
	// TrainingModel returns the innermost trainable model, or nil if
	// none of the wrapped models have trainable parameters.
	TrainingModel() Model[G]
	// NTasks reports how many concurrent in-flight evaluations this
	// model wants MCTS to keep in flight.
	NTasks() int
	// Features lists the auxiliary feature heads this model produces.
	Features() []FeatureDescriptor
}

// ApplyElementwise is the default batched-apply behaviour: map Apply
// across every input independently. Wrappers that don't override
// ApplyBatch should delegate to this.
func ApplyElementwise[G game.Game](m Model[G], gs []G) ([]Prediction, error) {
	out := make([]Prediction, len(gs))
	for i, g := range gs {
		pred, err := m.Apply(g)
		if err != nil {
			return nil, err
		}
		out[i] = pred
	}
	return out, nil
}

// MaskAndNormalize zeroes every entry not in legal, then renormalizes the
// remaining entries to sum to 1. If every legal entry is (numerically)
// zero, it falls back to a uniform distribution over legal, exactly as
// spec.md §4.5 step 2 requires for expansion priors.
func MaskAndNormalize(policy []float32, legal []int) []float32 {
	out := make([]float32, len(policy))
	var sum float32
	for _, a := range legal {
		out[a] = policy[a]
		sum += policy[a]
	}
	if sum <= 0 {
		uniform := 1 / float32(len(legal))
		for _, a := range legal {
			out[a] = uniform
		}
		return out
	}
	for _, a := range legal {
		out[a] /= sum
	}
	return out
}

// Uniform returns a full-length policy, uniform over legal actions and
// zero elsewhere.
func Uniform(length int, legal []int) []float32 {
	out := make([]float32, length)
	p := 1 / float32(len(legal))
	for _, a := range legal {
		out[a] = p
	}
	return out
}
