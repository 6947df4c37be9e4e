// Package player implements the match-driving side of this module: the
// Player contract and four concrete strategies, grounded on the teacher's
// Agent (agent.go), whose Search/Infer split this package generalizes into
// named, swappable strategies instead of one fixed A/B pair.
package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/internal/xrand"
	"github.com/cortexo/zerocore/mcts"
	"github.com/cortexo/zerocore/model"
	"github.com/pkg/errors"
)

// Player decides which legal action to play from g.
type Player[G game.Game] interface {
	Decide(ctx context.Context, g G) (int, error)
	Name() string
}

// RandomPlayer picks uniformly among the legal actions. It is the weakest
// possible opponent, used as a baseline in arena play.
type RandomPlayer[G game.Game] struct{ name string }

func NewRandomPlayer[G game.Game]() *RandomPlayer[G] { return &RandomPlayer[G]{name: "random"} }

func (p *RandomPlayer[G]) Name() string { return p.name }

func (p *RandomPlayer[G]) Decide(_ context.Context, g G) (int, error) {
	legal := g.LegalActions()
	if len(legal) == 0 {
		return 0, game.ErrGameOver
	}
	return legal[xrand.Intn(len(legal))], nil
}

// IntuitionPlayer plays from a model's raw policy head, with no search at
// all — the "one forward pass, no lookahead" baseline the teacher's
// NNEvaluate first-play-urgency term approximates before any visits
// accrue. Per spec.md §4.8, think(p, g) masks the policy to legal moves
// and cools it by temperature; decide samples from that distribution,
// hardening to an argmax one-hot only at temperature 0.
type IntuitionPlayer[G game.Game] struct {
	name        string
	m           model.Model[G]
	temperature float32
}

func NewIntuitionPlayer[G game.Game](m model.Model[G], temperature float32) *IntuitionPlayer[G] {
	return &IntuitionPlayer[G]{name: "intuition", m: m, temperature: temperature}
}

func (p *IntuitionPlayer[G]) Name() string { return p.name }

func (p *IntuitionPlayer[G]) Decide(_ context.Context, g G) (int, error) {
	pred, err := p.m.Apply(g)
	if err != nil {
		return 0, errors.Wrap(err, "intuitionPlayer: model apply")
	}
	legal := g.LegalActions()
	masked := model.MaskAndNormalize(pred.Policy, legal)
	cooled := coolByTemperature(masked, legal, p.temperature)
	return xrand.SampleProportional(cooled), nil
}

// MCTSPlayer runs a full search before every move, per spec.md §4.5/§4.6.
// decide samples from the search's already temperature-adjusted improved
// policy, per spec.md §4.8, rather than hardening it a second time.
type MCTSPlayer[G game.Game] struct {
	name string
	m    model.Model[G]
	cfg  mcts.Config
}

func NewMCTSPlayer[G game.Game](m model.Model[G], cfg mcts.Config) *MCTSPlayer[G] {
	return &MCTSPlayer[G]{name: "mcts", m: m, cfg: cfg}
}

func (p *MCTSPlayer[G]) Name() string { return p.name }

func (p *MCTSPlayer[G]) Decide(ctx context.Context, g G) (int, error) {
	res, err := mcts.Search[G](ctx, g, p.m, p.cfg)
	if err != nil && !errors.Is(err, mcts.ErrCancelled) {
		return 0, errors.Wrap(err, "mctsPlayer: search")
	}
	return xrand.SampleProportional(res.Policy), nil
}

// coolByTemperature raises each legal entry of policy to the power
// 1/temperature and renormalizes, mirroring mcts.extractPolicy's visit-count
// softening but applied to model policy probabilities directly. Temperature
// 0 hardens the distribution to a one-hot at the legal argmax.
func coolByTemperature(policy []float32, legal []int, temperature float32) []float32 {
	out := make([]float32, len(policy))
	if temperature == 0 {
		best := legal[0]
		var bestP float32 = -1
		for _, a := range legal {
			if policy[a] > bestP {
				bestP = policy[a]
				best = a
			}
		}
		out[best] = 1
		return out
	}

	weighted := make([]float32, len(legal))
	var sum float32
	for i, a := range legal {
		w := math32.Pow(policy[a], 1/temperature)
		weighted[i] = w
		sum += w
	}
	if sum <= 0 {
		u := 1 / float32(len(legal))
		for _, a := range legal {
			out[a] = u
		}
		return out
	}
	for i, a := range legal {
		out[a] = weighted[i] / sum
	}
	return out
}

// HumanPlayer reads a move index per line from in, reprompting on
// unparseable or illegal input. It never gives up and ends the match on
// bad input — only io.EOF (the input stream closing) propagates as an
// error, mirroring a real interactive session where a typo shouldn't
// forfeit the game.
type HumanPlayer[G game.Game] struct {
	name string
	in   *bufio.Scanner
	out  io.Writer
}

func NewHumanPlayer[G game.Game](in io.Reader, out io.Writer) *HumanPlayer[G] {
	return &HumanPlayer[G]{name: "human", in: bufio.NewScanner(in), out: out}
}

func (p *HumanPlayer[G]) Name() string { return p.name }

func (p *HumanPlayer[G]) Decide(_ context.Context, g G) (int, error) {
	legal := map[int]bool{}
	for _, a := range g.LegalActions() {
		legal[a] = true
	}
	for {
		fmt.Fprintf(p.out, "%v\nenter a move: ", g)
		if !p.in.Scan() {
			return 0, io.EOF
		}
		text := strings.TrimSpace(p.in.Text())
		a, err := strconv.Atoi(text)
		if err != nil || !legal[a] {
			fmt.Fprintf(p.out, "not a legal move: %q\n", text)
			continue
		}
		return a, nil
	}
}
