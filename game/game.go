// Package game defines the abstract contract every concrete board game
// must satisfy in order to be searched by mcts, scored by a model, and
// played by a player.
package game

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Status is the termination state of a game.
type Status int

const (
	// Undecided means the game has not ended.
	Undecided Status = iota
	// Draw means the game ended without a winner.
	Draw
	// WinPositive means the player encoded as +1 won.
	WinPositive
	// WinNegative means the player encoded as -1 won.
	WinNegative
)

func (s Status) String() string {
	switch s {
	case Undecided:
		return "Undecided"
	case Draw:
		return "Draw"
	case WinPositive:
		return "Win(+1)"
	case WinNegative:
		return "Win(-1)"
	}
	return "Unknown"
}

// Player is either +1 or -1. There is no "None" player mid-game; a Player
// is only meaningful while Status() == Undecided.
type Player int8

const (
	PlayerPositive Player = 1
	PlayerNegative Player = -1
)

// Opponent returns the other player.
func (p Player) Opponent() Player { return -p }

var (
	// ErrIllegalAction is returned by Apply when the action index is not
	// currently legal.
	ErrIllegalAction = errors.New("game: illegal action")
	// ErrGameOver is returned by any operation that advances a terminated
	// game.
	ErrGameOver = errors.New("game: game is already over")
)

// Game is the contract every concrete game must satisfy. Implementations
// are expected to be small value-ish types; Clone must produce a fully
// independent copy (no shared backing arrays) so that MCTS can hold many
// concurrent speculative lines of play.
type Game interface {
	// Status reports whether the game has ended, and how.
	Status() Status
	// CurrentPlayer is only defined while Status() == Undecided.
	CurrentPlayer() Player
	// LegalActions lists the indices in [0, PolicyLen()) that are
	// currently legal. Non-empty iff Status() == Undecided.
	LegalActions() []int
	// IsActionLegal reports whether a is presently a legal action.
	IsActionLegal(a int) bool
	// Apply plays action a and returns the resulting state. It must not
	// mutate the receiver. Apply(a) is only defined when IsActionLegal(a)
	// and the game is not terminal.
	Apply(a int) (Game, error)
	// Representation returns a (H, W, C) tensor encoding the board from
	// the current player's perspective.
	Representation() *tensor.Dense
	// PolicyLen is the number of distinct actions for this game type. It
	// is constant across all states of one game type.
	PolicyLen() int
	// Hash is a process-stable hash used as a cache key.
	Hash() uint64
	// Clone returns a deep, independent copy of the state.
	Clone() Game
	// Equal reports whether other represents the same position.
	Equal(other Game) bool
}

// RandomPlayout plays uniformly random legal actions from g, using randIntn
// as the source of randomness, until the game terminates. It returns the terminal
// status. Games are required to be finite, so this always terminates.
func RandomPlayout(g Game, randIntn func(int) int) Status {
	cur := g.Clone()
	for cur.Status() == Undecided {
		actions := cur.LegalActions()
		if len(actions) == 0 {
			panic("game: non-terminal state with no legal actions violates the Game contract")
		}
		a := actions[randIntn(len(actions))]
		next, err := cur.Apply(a)
		if err != nil {
			panic(errors.Wrap(err, "game: RandomPlayout hit an illegal action chosen from LegalActions"))
		}
		cur = next
	}
	return cur.Status()
}

// Outcome converts a terminal Status into a scalar value from the
// perspective of the given player: +1 win, -1 loss, 0 draw. Status must not
// be Undecided.
func Outcome(s Status, perspective Player) float32 {
	switch s {
	case Draw:
		return 0
	case WinPositive:
		if perspective == PlayerPositive {
			return 1
		}
		return -1
	case WinNegative:
		if perspective == PlayerNegative {
			return 1
		}
		return -1
	}
	panic("game: Outcome called on an Undecided status")
}
