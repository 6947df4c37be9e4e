package model_test

import (
	"bytes"
	"testing"

	"github.com/cortexo/zerocore/game/tictactoe"
	"github.com/cortexo/zerocore/model"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func newBaseModel(t *testing.T, batchSize int) *model.BaseModel[*tictactoe.TicTacToe] {
	torso := model.NewLinearTorso(3, 3, 1, 10) // 10 = PolicyLen(9) + 1 value logit
	m := model.NewBaseModel[*tictactoe.TicTacToe](model.BaseModelConfig{
		Height: 3, Width: 3, Channels: 1,
		PolicyLen: 9, BatchSize: batchSize,
	}, torso, func(g *tictactoe.TicTacToe) *tensor.Dense { return g.Representation() })
	require.NoError(t, m.Init())
	return m
}

func TestApplyRunsInferenceWithoutTrainingTargetsBound(t *testing.T) {
	m := newBaseModel(t, 1)
	pred, err := m.Apply(tictactoe.New())
	require.NoError(t, err)
	require.Len(t, pred.Policy, 9)
	require.GreaterOrEqual(t, pred.Value, float32(-1))
	require.LessOrEqual(t, pred.Value, float32(1))
}

func TestApplyBatchPadsAndTrimsToRequestedSize(t *testing.T) {
	m := newBaseModel(t, 4)
	g1 := tictactoe.New()
	moved, err := g1.Apply(0)
	require.NoError(t, err)
	g2 := moved.(*tictactoe.TicTacToe)

	preds, err := m.ApplyBatch([]*tictactoe.TicTacToe{g1, g2})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	for _, p := range preds {
		require.Len(t, p.Policy, 9)
	}
}

func TestApplyBatchRejectsOversizedBatch(t *testing.T) {
	m := newBaseModel(t, 1)
	_, err := m.ApplyBatch([]*tictactoe.TicTacToe{tictactoe.New(), tictactoe.New()})
	require.ErrorIs(t, err, model.ErrShapeMismatch)
}

func TestCopyProducesAnIndependentlyUsableModel(t *testing.T) {
	src := newBaseModel(t, 1)
	g := tictactoe.New()
	want, err := src.Apply(g)
	require.NoError(t, err)

	clone := src.Copy()
	got, err := clone.Apply(g)
	require.NoError(t, err)
	require.Equal(t, want.Value, got.Value)
	require.Equal(t, want.Policy, got.Policy)

	// the clone owns its own parameter nodes, not the source's, so a
	// GobDecode into one leaves the other's predictions untouched.
	cloneBase := clone.(*model.BaseModel[*tictactoe.TicTacToe])
	params, err := src.GobEncode()
	require.NoError(t, err)
	require.NoError(t, cloneBase.GobDecode(params))

	stillWant, err := src.Apply(g)
	require.NoError(t, err)
	require.Equal(t, want, stillWant)
}

func TestSaveLoadRoundTripPreservesPredictions(t *testing.T) {
	src := newBaseModel(t, 1)
	g := tictactoe.New()
	want, err := src.Apply(g)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, model.SaveModel[*tictactoe.TicTacToe](&buf, "tictactoe", src))

	dst := newBaseModel(t, 1)
	require.NoError(t, model.LoadModel[*tictactoe.TicTacToe](&buf, "tictactoe", dst))

	got, err := dst.Apply(g)
	require.NoError(t, err)
	require.Equal(t, want.Value, got.Value)
	require.Equal(t, want.Policy, got.Policy)
}
