package model

import (
	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/internal/xrand"
)

// NewRolloutModel returns a RolloutModel drawing from the process-wide
// random source.
func NewRolloutModel[G game.Game]() *RolloutModel[G] {
	return &RolloutModel[G]{RandIntn: xrand.Intn}
}

// RolloutModel estimates value by playing a uniformly random game to
// completion from the given state and converting the outcome to the
// current player's perspective; its policy is uniform over legal actions.
// It has no parameters and is the cheap MCTS prior used when no network is
// available, mirroring the teacher's RolloutModel role (random_playout
// feeding the value head).
type RolloutModel[G game.Game] struct {
	// RandIntn draws a uniform int in [0, n); defaults to
	// internal/xrand's process-wide source if nil (NewRolloutModel sets it
	// to that source explicitly).
	RandIntn func(int) int
}

var _ Model[game.Game] = &RolloutModel[game.Game]{}

func (m *RolloutModel[G]) Apply(g G) (Prediction, error) {
	legal := g.LegalActions()
	player := g.CurrentPlayer()
	randIntn := m.RandIntn
	if randIntn == nil {
		randIntn = xrand.Intn
	}
	status := game.RandomPlayout(g, randIntn)
	return Prediction{
		Value:  game.Outcome(status, player),
		Policy: Uniform(g.PolicyLen(), legal),
	}, nil
}

func (m *RolloutModel[G]) ApplyBatch(gs []G) ([]Prediction, error) { return ApplyElementwise[G](m, gs) }
func (m *RolloutModel[G]) Swap() (Model[G], error)                 { return m, nil }
func (m *RolloutModel[G]) Copy() Model[G]                          { return &RolloutModel[G]{RandIntn: m.RandIntn} }
func (m *RolloutModel[G]) BaseModel() Model[G]                     { return m }
func (m *RolloutModel[G]) PlayingModel() Model[G]                  { return m }
func (m *RolloutModel[G]) TrainingModel() Model[G]                 { return nil }
func (m *RolloutModel[G]) NTasks() int                             { return 1 }
func (m *RolloutModel[G]) Features() []FeatureDescriptor           { return nil }
