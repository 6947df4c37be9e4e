package player

import (
	"context"

	"github.com/cortexo/zerocore/game"
	"github.com/pkg/errors"
)

// Match is the outcome of one pvp.Play call.
type Match struct {
	Status  game.Status
	History []int
}

// Play alternates positive and negative across a single game starting from
// start, asking whichever Player is on the move to Decide, then applying
// that action. It is the generic form of the teacher's Arena.Play alternate-
// turn loop (arena.go), stripped of Go-specific pass/komi/resign handling
// and of training-example recording, which selfplay.RecordSelfPlay owns
// instead.
func Play[G game.Game](ctx context.Context, start G, positive, negative Player[G]) (Match, error) {
	var cur game.Game = start
	var history []int

	for cur.Status() == game.Undecided {
		mover := positive
		if cur.CurrentPlayer() == game.PlayerNegative {
			mover = negative
		}

		a, err := mover.Decide(ctx, cur.(G))
		if err != nil {
			return Match{History: history}, errors.Wrapf(err, "pvp: %s failed to decide", mover.Name())
		}
		next, err := cur.Apply(a)
		if err != nil {
			return Match{History: history}, errors.Wrapf(err, "pvp: %s played illegal action %d", mover.Name(), a)
		}
		history = append(history, a)
		cur = next
	}

	return Match{Status: cur.Status(), History: history}, nil
}
