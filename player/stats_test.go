package player_test

import (
	"strings"
	"testing"

	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsTalliesAcrossMatches(t *testing.T) {
	s := player.NewStats()
	s.Record("alpha", "beta", game.WinPositive)
	s.Record("alpha", "beta", game.WinNegative)
	s.Record("alpha", "beta", game.Draw)

	assert.Equal(t, float32(1)/3, s.WinRate("alpha"))
	assert.Equal(t, float32(1)/3, s.WinRate("beta"))

	var buf strings.Builder
	require.NoError(t, s.Dump(&buf))
	out := buf.String()
	assert.Contains(t, out, "player,wins,losses,draws,win_rate")
	assert.Contains(t, out, "alpha,1,1,1,0.333")
	assert.Contains(t, out, "beta,1,1,1,0.333")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3, "one header row plus one row per player, not one per Record call")
}

func TestStatsDoesNotDuplicateAPlayerThatNeverWins(t *testing.T) {
	s := player.NewStats()
	for i := 0; i < 10; i++ {
		s.Record("mcts", "random", game.WinPositive)
	}

	var buf strings.Builder
	require.NoError(t, s.Dump(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3, "header + mcts + random, regardless of random never winning")

	var randomRows int
	for _, l := range lines {
		if strings.HasPrefix(l, "random,") {
			randomRows++
		}
	}
	assert.Equal(t, 1, randomRows)
}

func TestStatsWinRateOfUnseenPlayerIsZero(t *testing.T) {
	s := player.NewStats()
	assert.Equal(t, float32(0), s.WinRate("nobody"))
}
