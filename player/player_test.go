package player_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/game/tictactoe"
	"github.com/cortexo/zerocore/internal/xrand"
	"github.com/cortexo/zerocore/mcts"
	"github.com/cortexo/zerocore/model"
	"github.com/cortexo/zerocore/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomPlayerAlwaysPicksALegalAction(t *testing.T) {
	xrand.Seed(1)
	p := player.NewRandomPlayer[*tictactoe.TicTacToe]()
	g := tictactoe.New()
	a, err := p.Decide(context.Background(), g)
	require.NoError(t, err)
	assert.True(t, g.IsActionLegal(a))
	assert.Equal(t, "random", p.Name())
}

func TestIntuitionPlayerPicksALegalAction(t *testing.T) {
	xrand.Seed(4)
	p := player.NewIntuitionPlayer[*tictactoe.TicTacToe](model.RandomModel[*tictactoe.TicTacToe]{}, 1)
	g := tictactoe.New()
	a, err := p.Decide(context.Background(), g)
	require.NoError(t, err)
	assert.True(t, g.IsActionLegal(a))
}

func TestIntuitionPlayerAtZeroTemperatureIsDeterministic(t *testing.T) {
	xrand.Seed(5)
	g := tictactoe.New()
	policy := make([]float32, g.PolicyLen())
	policy[3] = 1 // always most confident about action 3, which is legal on an empty board
	dummy := model.DummyModel[*tictactoe.TicTacToe]{Policy: policy}
	p := player.NewIntuitionPlayer[*tictactoe.TicTacToe](dummy, 0)
	for i := 0; i < 5; i++ {
		a, err := p.Decide(context.Background(), g)
		require.NoError(t, err)
		assert.Equal(t, 3, a)
	}
}

func TestMCTSPlayerFindsTheWinningMove(t *testing.T) {
	xrand.Seed(2)
	g := tictactoe.New()
	for _, a := range []int{0, 3, 1, 4} {
		next, err := g.Apply(a)
		require.NoError(t, err)
		g = next.(*tictactoe.TicTacToe)
	}
	// X to move with two in a row on the top row (0, 1); 2 completes it.
	p := player.NewMCTSPlayer[*tictactoe.TicTacToe](model.NewRolloutModel[*tictactoe.TicTacToe](), mcts.Config{
		Power: 200, Exploration: 1.0, Temperature: 0,
	})
	a, err := p.Decide(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 2, a)
}

func TestHumanPlayerRepromptsOnIllegalInput(t *testing.T) {
	in := strings.NewReader("not-a-number\n99\n4\n")
	var out strings.Builder
	p := player.NewHumanPlayer[*tictactoe.TicTacToe](in, &out)
	a, err := p.Decide(context.Background(), tictactoe.New())
	require.NoError(t, err)
	assert.Equal(t, 4, a)
	assert.Contains(t, out.String(), "not a legal move")
}

func TestHumanPlayerReturnsEOFWhenInputStreamCloses(t *testing.T) {
	in := strings.NewReader("")
	var out strings.Builder
	p := player.NewHumanPlayer[*tictactoe.TicTacToe](in, &out)
	_, err := p.Decide(context.Background(), tictactoe.New())
	require.Error(t, err)
}

func TestPlayRunsAFullGameToATerminalStatus(t *testing.T) {
	xrand.Seed(3)
	positive := player.NewRandomPlayer[*tictactoe.TicTacToe]()
	negative := player.NewRandomPlayer[*tictactoe.TicTacToe]()
	m, err := player.Play[*tictactoe.TicTacToe](context.Background(), tictactoe.New(), positive, negative)
	require.NoError(t, err)
	assert.NotEqual(t, game.Undecided, m.Status)
	assert.NotEmpty(t, m.History)
	assert.LessOrEqual(t, len(m.History), 9)
}

func TestPlayPropagatesAnIllegalMoveAsAnError(t *testing.T) {
	bad := &alwaysRepeatsFirstMove{}
	good := player.NewRandomPlayer[*tictactoe.TicTacToe]()
	_, err := player.Play[*tictactoe.TicTacToe](context.Background(), tictactoe.New(), bad, good)
	require.Error(t, err)
}

// alwaysRepeatsFirstMove always plays action 0, which becomes illegal on
// its second turn once some other action has filled a different cell and
// 0 stays occupied, exercising Play's illegal-action error path.
type alwaysRepeatsFirstMove struct{}

func (*alwaysRepeatsFirstMove) Name() string { return "stuck" }
func (*alwaysRepeatsFirstMove) Decide(_ context.Context, _ *tictactoe.TicTacToe) (int, error) {
	return 0, nil
}
