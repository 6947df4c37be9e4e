// Command selfplay wires tictactoe, model.BaseModel and the mcts/selfplay/
// train packages together end to end: load-or-init a model, run some
// self-play + training epochs, save the model, then play ten demonstration
// games against a random opponent and print the win/loss/draw tally as CSV. It is grounded on the teacher's
// cmd/example/play/main.go, which does the narrower "load a saved model and
// make one Search call" version of the same wiring.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/cortexo/zerocore/game/tictactoe"
	"github.com/cortexo/zerocore/mcts"
	"github.com/cortexo/zerocore/model"
	"github.com/cortexo/zerocore/player"
	"github.com/cortexo/zerocore/selfplay"
	"github.com/cortexo/zerocore/train"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const gameTag = "tictactoe"

func main() {
	var (
		modelPath  = flag.String("model", "selfplay.model", "path to save/load the trained model")
		epochs     = flag.Int("epochs", 5, "number of self-play + train epochs")
		gamesPerEp = flag.Int("games", 20, "self-play games recorded per epoch")
		power      = flag.Int("power", 100, "MCTS simulations per move during self-play")
		batchSize  = flag.Int("batch", 8, "training minibatch size")
	)
	flag.Parse()

	torso := model.NewLinearTorso(3, 3, 1, tictactoe.New().PolicyLen()+1)
	m := model.NewBaseModel[*tictactoe.TicTacToe](model.BaseModelConfig{
		Height: 3, Width: 3, Channels: 1,
		PolicyLen: tictactoe.New().PolicyLen(),
		BatchSize: *batchSize,
	}, torso, func(g *tictactoe.TicTacToe) *tensor.Dense { return g.Representation() })
	if err := m.Init(); err != nil {
		log.Fatalf("selfplay: init model: %v", err)
	}

	if f, err := os.Open(*modelPath); err == nil {
		if err := model.LoadModel[*tictactoe.TicTacToe](f, gameTag, m); err != nil {
			log.Printf("selfplay: no usable checkpoint at %s (%v), starting from scratch", *modelPath, err)
		} else {
			log.Printf("selfplay: loaded checkpoint from %s", *modelPath)
		}
		f.Close()
	}

	cfg := mcts.Config{Power: *power, Exploration: 1.0, Temperature: 1}
	solver := G.NewVanillaSolver(G.WithLearnRate(0.01))
	ctx := context.Background()

	for e := 0; e < *epochs; e++ {
		ds, err := selfplay.RecordSelfPlay[*tictactoe.TicTacToe](ctx, *gamesPerEp, tictactoe.New, m, cfg, tictactoe.Augment)
		if err != nil {
			log.Printf("epoch %d: %d/%d self-play games failed: %v", e, ds.FailedGames, *gamesPerEp, err)
		}
		if len(ds.Examples) == 0 {
			log.Printf("epoch %d: no training examples recorded, skipping training step", e)
			continue
		}

		batches := train.BuildBatches(ds, *batchSize, 1, 3, 3, tictactoe.New().PolicyLen())
		cost, err := train.Epoch[*tictactoe.TicTacToe](m, batches, solver)
		if err != nil {
			log.Fatalf("epoch %d: training failed: %v", e, err)
		}
		log.Printf("epoch %d: %d examples, %d batches, mean cost %.4f", e, len(ds.Examples), len(batches), cost)
	}

	out, err := os.Create(*modelPath)
	if err != nil {
		log.Fatalf("selfplay: creating checkpoint file: %v", err)
	}
	if err := model.SaveModel[*tictactoe.TicTacToe](out, gameTag, m); err != nil {
		out.Close()
		log.Fatalf("selfplay: saving checkpoint: %v", err)
	}
	out.Close()
	log.Printf("selfplay: saved checkpoint to %s", *modelPath)

	mctsPlayer := player.NewMCTSPlayer[*tictactoe.TicTacToe](m, cfg)
	randomPlayer := player.NewRandomPlayer[*tictactoe.TicTacToe]()
	stats := player.NewStats()
	for i := 0; i < 10; i++ {
		match, err := player.Play[*tictactoe.TicTacToe](ctx, tictactoe.New(), mctsPlayer, randomPlayer)
		if err != nil {
			log.Fatalf("selfplay: demonstration match failed: %v", err)
		}
		stats.Record(mctsPlayer.Name(), randomPlayer.Name(), match.Status)
	}
	if err := stats.Dump(os.Stdout); err != nil {
		log.Fatalf("selfplay: dumping stats: %v", err)
	}
}
