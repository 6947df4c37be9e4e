// Package tictactoe is the reference implementation of game.Game used
// throughout this module's tests and examples. It is a 3x3, k=3 member of
// the MNK family of games, grounded on the teacher's game/mnk package but
// rewritten against the generic game.Game contract with dihedral-8
// symmetry augmentation.
package tictactoe

import (
	"hash/fnv"

	"github.com/cortexo/zerocore/game"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

const (
	boardSize = 3
	numCells  = boardSize * boardSize
)

// cell values mirror game.Player encoding: +1, -1, 0 for empty.
type cell int8

// TicTacToe is a 3x3 board. The zero value is not usable; construct with
// New.
type TicTacToe struct {
	board   [numCells]cell
	toMove  game.Player
	history []int
}

var _ game.Game = &TicTacToe{}

// New returns a fresh empty board with PlayerPositive to move.
func New() *TicTacToe {
	return &TicTacToe{toMove: game.PlayerPositive}
}

func (g *TicTacToe) Status() game.Status {
	if w := g.winner(); w != 0 {
		if w == cell(game.PlayerPositive) {
			return game.WinPositive
		}
		return game.WinNegative
	}
	if len(g.history) == numCells {
		return game.Draw
	}
	return game.Undecided
}

func (g *TicTacToe) CurrentPlayer() game.Player { return g.toMove }

func (g *TicTacToe) LegalActions() []int {
	if g.Status() != game.Undecided {
		return nil
	}
	actions := make([]int, 0, numCells-len(g.history))
	for i, c := range g.board {
		if c == 0 {
			actions = append(actions, i)
		}
	}
	return actions
}

func (g *TicTacToe) IsActionLegal(a int) bool {
	if a < 0 || a >= numCells {
		return false
	}
	return g.Status() == game.Undecided && g.board[a] == 0
}

func (g *TicTacToe) Apply(a int) (game.Game, error) {
	if g.Status() != game.Undecided {
		return nil, errors.Wrapf(game.ErrGameOver, "tictactoe: Apply(%d)", a)
	}
	if !g.IsActionLegal(a) {
		return nil, errors.Wrapf(game.ErrIllegalAction, "tictactoe: Apply(%d)", a)
	}
	next := g.clone()
	next.board[a] = cell(g.toMove)
	next.history = append(next.history, a)
	next.toMove = g.toMove.Opponent()
	return next, nil
}

// Representation returns a 3x3x1 tensor: +1 for the current player's
// stones, -1 for the opponent's, 0 for empty, so the board is always
// expressed from the current player's perspective (spec.md §3's
// "to-move perspective" requirement).
func (g *TicTacToe) Representation() *tensor.Dense {
	data := make([]float32, numCells)
	me := cell(g.toMove)
	for i, c := range g.board {
		switch c {
		case me:
			data[i] = 1
		case -me:
			data[i] = -1
		}
	}
	return tensor.New(tensor.WithShape(boardSize, boardSize, 1), tensor.WithBacking(data))
}

func (g *TicTacToe) PolicyLen() int { return numCells }

func (g *TicTacToe) Hash() uint64 {
	h := fnv.New64a()
	buf := make([]byte, numCells+1)
	for i, c := range g.board {
		buf[i] = byte(c) + 1
	}
	buf[numCells] = byte(g.toMove) + 1
	h.Write(buf)
	return h.Sum64()
}

func (g *TicTacToe) Clone() game.Game { return g.clone() }

func (g *TicTacToe) clone() *TicTacToe {
	next := &TicTacToe{board: g.board, toMove: g.toMove}
	next.history = make([]int, len(g.history))
	copy(next.history, g.history)
	return next
}

func (g *TicTacToe) Equal(other game.Game) bool {
	o, ok := other.(*TicTacToe)
	if !ok {
		return false
	}
	return g.board == o.board && g.toMove == o.toMove
}

// Augment returns the distinct dihedral symmetries of the position (at most
// 8; a board that several symmetries map to the same cells appears once),
// each paired with the correspondingly permuted policy.
func Augment(g game.Game, policy []float32) []game.Pair {
	t := g.(*TicTacToe)
	perms := game.Dihedral8(boardSize)
	out := make([]game.Pair, 0, 8)
	seen := map[[numCells]cell]bool{}
	for _, perm := range perms {
		var nb [numCells]cell
		for i, src := range perm {
			nb[i] = t.board[src]
		}
		if seen[nb] {
			continue // symmetric position (e.g. the empty board); don't duplicate training signal
		}
		seen[nb] = true
		next := &TicTacToe{board: nb, toMove: t.toMove}
		next.history = make([]int, len(t.history))
		copy(next.history, t.history)

		pf := make([]float32, len(policy))
		copy(pf, policy)
		boardPolicy := game.ApplyPerm(pf[:numCells], perm)
		copy(pf, boardPolicy)
		out = append(out, game.Pair{State: next, Policy: pf})
	}
	return out
}

func (g *TicTacToe) winner() cell {
	lines := [8][3]int{
		{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
		{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
		{0, 4, 8}, {2, 4, 6},
	}
	for _, l := range lines {
		a, b, c := g.board[l[0]], g.board[l[1]], g.board[l[2]]
		if a != 0 && a == b && b == c {
			return a
		}
	}
	return 0
}

// String renders the board for debugging, mirroring the teacher's
// Format-based board dump.
func (g *TicTacToe) String() string {
	out := make([]byte, 0, numCells+boardSize)
	for i, c := range g.board {
		switch c {
		case cell(game.PlayerPositive):
			out = append(out, 'X')
		case cell(game.PlayerNegative):
			out = append(out, 'O')
		default:
			out = append(out, '.')
		}
		if (i+1)%boardSize == 0 {
			out = append(out, '\n')
		}
	}
	return string(out)
}
