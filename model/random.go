package model

import "github.com/cortexo/zerocore/game"

// RandomModel predicts a uniform policy over legal actions and a value of
// exactly 0. It has no parameters; it exists as a trivial MCTS prior and
// baseline model (player.RandomPlayer does not use it: it draws its moves
// from internal/xrand directly), mirroring the teacher's dummyInferer but
// wired through the full Model contract.
type RandomModel[G game.Game] struct{}

var _ Model[game.Game] = RandomModel[game.Game]{}

func (RandomModel[G]) Apply(g G) (Prediction, error) {
	legal := g.LegalActions()
	return Prediction{Value: 0, Policy: Uniform(g.PolicyLen(), legal)}, nil
}

func (m RandomModel[G]) ApplyBatch(gs []G) ([]Prediction, error) { return ApplyElementwise[G](m, gs) }
func (m RandomModel[G]) Swap() (Model[G], error)                 { return m, nil }
func (m RandomModel[G]) Copy() Model[G]                          { return m }
func (m RandomModel[G]) BaseModel() Model[G]                     { return m }
func (m RandomModel[G]) PlayingModel() Model[G]                  { return m }
func (m RandomModel[G]) TrainingModel() Model[G]                 { return nil }
func (m RandomModel[G]) NTasks() int                             { return 1 }
func (m RandomModel[G]) Features() []FeatureDescriptor           { return nil }
