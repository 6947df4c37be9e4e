// Package selfplay drives complete games of one model against itself
// through mcts.Search, and turns the resulting move history into training
// examples: (game state, improved policy, terminal outcome from that
// position's perspective). It is grounded on the teacher's AZ.SelfPlay and
// Arena.Play (agogo.go, arena.go): a per-ply search-then-apply loop that
// defers assigning the value target until the game's outcome is known.
package selfplay

import (
	"context"

	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/internal/xrand"
	"github.com/cortexo/zerocore/mcts"
	"github.com/cortexo/zerocore/model"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Example is one training example: the recorded game state (its
// representation is taken later, when batches are built), the
// MCTS-improved policy recorded at that state, and the game's eventual
// outcome from the mover's perspective at that state.
type Example struct {
	State  game.Game
	Policy []float32
	Value  float32
}

// DataSet is the accumulated output of RecordSelfPlay.
type DataSet struct {
	Examples    []Example
	FailedGames int
}

// RecordSelfPlay plays n games of m against itself, each starting from a
// fresh newGame(), searching cfg.Power simulations per ply. Every recorded
// position is expanded through augment (typically a game's board-symmetry
// Augmenter) before being appended to the result, so the returned dataset
// has len(augment(...)) entries per ply rather than one.
//
// A game that fails mid-play (a non-cancellation search error, or an
// illegal-action bug surfaced by Apply) does not abort the run: it is
// counted in FailedGames and its cause is aggregated into the returned
// error via github.com/hashicorp/go-multierror, mirroring the teacher's
// tolerance for a single bad game not aborting a whole Learn epoch.
func RecordSelfPlay[G game.Game](ctx context.Context, n int, newGame func() G, m model.Model[G], cfg mcts.Config, augment game.Augmenter) (DataSet, error) {
	var ds DataSet
	var errs *multierror.Error

	for i := 0; i < n; i++ {
		plies, err := playOneGame[G](ctx, newGame(), m, cfg)
		if err != nil {
			ds.FailedGames++
			errs = multierror.Append(errs, errors.Wrapf(err, "selfplay: game %d", i))
			continue
		}
		for _, ex := range plies {
			for _, pair := range augment(ex.State, ex.Policy) {
				ds.Examples = append(ds.Examples, Example{
					State:  pair.State,
					Policy: pair.Policy,
					Value:  ex.Value,
				})
			}
		}
	}

	if errs != nil {
		return ds, errs
	}
	return ds, nil
}

type ply struct {
	state  game.Game
	player game.Player
	policy []float32
}

// playOneGame runs one game to completion, recording the state, mover and
// improved policy at each ply, then backfills each recorded ply's target
// value with the terminal outcome from that ply's mover's perspective.
func playOneGame[G game.Game](ctx context.Context, root G, m model.Model[G], cfg mcts.Config) ([]Example, error) {
	var plies []ply
	var cur game.Game = root

	for cur.Status() == game.Undecided {
		res, err := mcts.Search[G](ctx, cur.(G), m, cfg)
		if err != nil && !errors.Is(err, mcts.ErrCancelled) {
			return nil, errors.Wrap(err, "selfplay: search failed")
		}
		plies = append(plies, ply{state: cur, player: cur.CurrentPlayer(), policy: res.Policy})

		a := xrand.SampleProportional(res.Policy)
		next, err := cur.Apply(a)
		if err != nil {
			return nil, errors.Wrap(err, "selfplay: applying the searched action")
		}
		cur = next
	}

	status := cur.Status()
	examples := make([]Example, len(plies))
	for i, p := range plies {
		examples[i] = Example{
			State:  p.state,
			Policy: p.policy,
			Value:  game.Outcome(status, p.player),
		}
	}
	return examples, nil
}
