package cache_test

import (
	"testing"

	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/game/tictactoe"
	"github.com/cortexo/zerocore/model"
	"github.com/cortexo/zerocore/model/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheDeterminismAndCounters(t *testing.T) {
	inner := model.NewRolloutModel[*tictactoe.TicTacToe]()
	c := cache.New[*tictactoe.TicTacToe](inner, 1000)

	board := tictactoe.New()
	first, err := c.Apply(board)
	require.NoError(t, err)

	for i := 0; i < 999; i++ {
		pred, err := c.Apply(board)
		require.NoError(t, err)
		assert.Equal(t, first, pred)
	}

	hits, misses, size := c.Stats()
	assert.EqualValues(t, 999, hits)
	assert.EqualValues(t, 1, misses)
	assert.Equal(t, 1, size)
}

func TestCacheAdmissionBound(t *testing.T) {
	inner := model.NewRolloutModel[*tictactoe.TicTacToe]()
	c := cache.New[*tictactoe.TicTacToe](inner, 1)

	b0 := tictactoe.New()
	b1, err := b0.Apply(0)
	require.NoError(t, err)

	_, err = c.Apply(b0)
	require.NoError(t, err)
	_, err = c.Apply(b1.(*tictactoe.TicTacToe))
	require.NoError(t, err)

	_, _, size := c.Stats()
	assert.Equal(t, 1, size, "cache at capacity must not admit new entries")
}

func TestCacheSwapIsNonFatalNoOp(t *testing.T) {
	inner := model.NewRolloutModel[*tictactoe.TicTacToe]()
	c := cache.New[*tictactoe.TicTacToe](inner, 10)

	swapped, err := c.Swap()
	assert.Error(t, err)
	assert.Same(t, c, swapped)
}

func TestCacheFeaturesUnsupported(t *testing.T) {
	inner := model.NewRolloutModel[*tictactoe.TicTacToe]()
	c := cache.New[*tictactoe.TicTacToe](inner, 10)
	assert.Nil(t, c.Features())
	assert.ErrorIs(t, c.FeaturesErr(), model.ErrFeatureUnsupported)
}

var _ game.Game = (*tictactoe.TicTacToe)(nil)
