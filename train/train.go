// Package train drives the host-side gradient descent loop over a
// model.BaseModel, grounded on the teacher's dualnet.Train and its
// shuffleBatch helper (dualnet/meta.go): shuffle once per epoch, slice
// into fixed-size batches, run a tape machine forward+backward pass per
// batch, then step a gorgonia solver over the accumulated gradients.
package train

import (
	"github.com/chewxy/math32"
	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/internal/xrand"
	"github.com/cortexo/zerocore/model"
	"github.com/cortexo/zerocore/selfplay"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Target is one example's training targets: the MCTS-improved policy and
// the eventual game outcome from that example's mover's perspective.
type Target struct {
	Policy []float32
	Value  float32
}

// LossParts breaks a single example's composite loss down by head. It
// excludes the L2 regularization term, since that term is a function of
// the model's parameters rather than of one prediction/target pair.
type LossParts struct {
	Policy float32
	Value  float32
}

// Loss computes spec.md §4.7's composite loss for one example, purely in
// host Go rather than on a gorgonia graph: policy cross-entropy plus value
// MSE, mirroring the math model.BaseModel.initBackward builds into its
// cost node. It takes no model at all, so any Model[G] implementation's
// output can be scored against a Target, not just BaseModel's.
func Loss(pred model.Prediction, target Target) (total float32, parts LossParts) {
	const eps = 1e-8
	var xent float32
	for i, p := range target.Policy {
		if p == 0 {
			continue
		}
		xent -= p * math32.Log(pred.Policy[i]+eps)
	}
	diff := pred.Value - target.Value
	parts = LossParts{Policy: xent, Value: diff * diff}
	return parts.Policy + parts.Value, parts
}

// Batch holds one minibatch's planes, target policies and target values,
// already shaped to a BaseModel's configured BatchSize.
type Batch struct {
	Planes *tensor.Dense
	Policy *tensor.Dense
	Value  *tensor.Dense
}

// BuildBatches shuffles ds.Examples and slices them into fixed-size
// batches, dropping a final short batch rather than padding it (the
// teacher pads with nothing either; see agogo.go's prepareExamples,
// which also truncates to a multiple of BatchSize).
func BuildBatches(ds selfplay.DataSet, batchSize, channels, height, width, policyLen int) []Batch {
	examples := make([]selfplay.Example, len(ds.Examples))
	copy(examples, ds.Examples)
	xrand.Shuffle(len(examples), func(i, j int) { examples[i], examples[j] = examples[j], examples[i] })

	stride := channels * height * width
	n := len(examples) / batchSize
	batches := make([]Batch, 0, n)
	for b := 0; b < n; b++ {
		start := b * batchSize
		planesBacking := make([]float32, 0, batchSize*stride)
		policyBacking := make([]float32, 0, batchSize*policyLen)
		valueBacking := make([]float32, batchSize)

		for i := 0; i < batchSize; i++ {
			ex := examples[start+i]
			rep := ex.State.Representation()
			rd, _ := rep.Data().([]float32)
			planesBacking = append(planesBacking, rd...)
			policyBacking = append(policyBacking, ex.Policy...)
			valueBacking[i] = ex.Value
		}

		batches = append(batches, Batch{
			Planes: tensor.New(tensor.WithShape(batchSize, channels, height, width), tensor.WithBacking(planesBacking)),
			Policy: tensor.New(tensor.WithShape(batchSize, policyLen), tensor.WithBacking(policyBacking)),
			Value:  tensor.New(tensor.WithShape(batchSize), tensor.WithBacking(valueBacking)),
		})
	}
	return batches
}

// Step runs one forward+backward pass of m over batch and applies one
// solver update, mirroring the per-batch body of dualnet.Train. It
// returns the batch's scalar composite cost (value MSE + policy CE +
// optional L2, per spec.md §4.7).
func Step[G_ game.Game](m *model.BaseModel[G_], batch Batch, solver G.Solver) (cost float32, err error) {
	if err := m.Bind(batch.Planes, batch.Policy, batch.Value); err != nil {
		return 0, errors.Wrap(err, "train: binding batch")
	}

	vm := G.NewTapeMachine(m.Graph(), G.BindDualValues(m.Params()...))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return 0, errors.Wrap(err, "train: forward/backward pass")
	}

	if err := solver.Step(G.NodesToValueGrads(m.Params())); err != nil {
		return 0, errors.Wrap(err, "train: solver step")
	}
	vm.Reset()
	return m.Cost(), nil
}

// Epoch runs Step over every batch once and returns the mean cost,
// mirroring dualnet.Train's outer iteration over batches within one pass
// over the dataset (the teacher reshuffles between outer iterations;
// callers here call BuildBatches again for the next epoch to get the
// same effect).
func Epoch[G_ game.Game](m *model.BaseModel[G_], batches []Batch, solver G.Solver) (float32, error) {
	if len(batches) == 0 {
		return 0, nil
	}
	var total float32
	for _, b := range batches {
		cost, err := Step[G_](m, b, solver)
		if err != nil {
			return 0, err
		}
		total += cost
	}
	return total / float32(len(batches)), nil
}
