package model

import "github.com/cortexo/zerocore/game"

// DummyModel returns a fixed, deterministic prediction regardless of the
// input state. It exists purely for tests that need a predictable model,
// mirroring the teacher's dummyInferer.
type DummyModel[G game.Game] struct {
	Value  float32
	Policy []float32 // if nil, a uniform-over-all-actions policy is synthesized per call
}

var _ Model[game.Game] = DummyModel[game.Game]{}

func (m DummyModel[G]) Apply(g G) (Prediction, error) {
	policy := m.Policy
	if policy == nil {
		policy = make([]float32, g.PolicyLen())
		p := 1 / float32(g.PolicyLen())
		for i := range policy {
			policy[i] = p
		}
	}
	return Prediction{Value: m.Value, Policy: policy}, nil
}

func (m DummyModel[G]) ApplyBatch(gs []G) ([]Prediction, error) { return ApplyElementwise[G](m, gs) }
func (m DummyModel[G]) Swap() (Model[G], error)                 { return m, nil }
func (m DummyModel[G]) Copy() Model[G]                          { return m }
func (m DummyModel[G]) BaseModel() Model[G]                     { return m }
func (m DummyModel[G]) PlayingModel() Model[G]                  { return m }
func (m DummyModel[G]) TrainingModel() Model[G]                 { return nil }
func (m DummyModel[G]) NTasks() int                             { return 1 }
func (m DummyModel[G]) Features() []FeatureDescriptor           { return nil }
