package mcts

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/model"
)

// Result is what Search hands back: the improved policy extracted from
// visit counts (spec.md §4.6) plus the root's resulting value estimate,
// useful for resignation thresholds or logging.
type Result struct {
	Policy []float32
	Value  float32
}

// Search runs cfg.Power simulations of SELECT/EXPAND-SIMULATE/BACKUP from
// root and returns the improved policy. It is grounded on the teacher's
// MCTS.Search (mcts/search.go): a single-mutex tree mutated by one or more
// goroutines pulling from a shared simulation budget, each suspending on
// model.Apply outside the lock. Unlike the teacher, the number of
// concurrent goroutines is driven by m.NTasks() rather than
// runtime.NumCPU(), per spec.md §4.4's model-advertised concurrency
// contract: a batching model wants many traversals in flight, a bare
// synchronous model wants exactly one.
//
// ctx governs cancellation: if it is done before Power simulations
// complete, Search returns the best-effort policy computed so far wrapped
// with ErrCancelled rather than discarding the work.
func Search[G game.Game](ctx context.Context, root G, m model.Model[G], cfg Config) (Result, error) {
	result, _, err := search[G](ctx, root, m, cfg)
	return result, err
}

// SearchDebug behaves exactly like Search, but additionally returns a
// DOT-exportable snapshot of the finished tree for visual inspection,
// mirroring the teacher's MCTS.ToDot (mcts/graph.go). The snapshot is nil
// for the degenerate single-legal-action and terminal-root fast paths,
// which never build a tree.
func SearchDebug[G game.Game](ctx context.Context, root G, m model.Model[G], cfg Config) (Result, *Tree[G], error) {
	result, t, err := search[G](ctx, root, m, cfg)
	if t == nil {
		return result, nil, err
	}
	return result, &Tree[G]{inner: t}, err
}

func search[G game.Game](ctx context.Context, root G, m model.Model[G], cfg Config) (Result, *tree[G], error) {
	if !cfg.IsValid() {
		return Result{}, nil, ErrInvalidConfig
	}
	if status := root.Status(); status != game.Undecided {
		return Result{}, nil, game.ErrGameOver
	}

	legal := root.LegalActions()
	if len(legal) == 1 {
		policy := make([]float32, root.PolicyLen())
		policy[legal[0]] = 1
		return Result{Policy: policy, Value: 0}, nil, nil
	}

	t := newTree[G](root, m, cfg.Exploration, cfg.Dilution)

	workers := m.NTasks()
	if workers < 1 {
		workers = 1
	}

	var remaining int32 = int32(cfg.Power)
	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex

	runOne := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if atomic.AddInt32(&remaining, -1) < 0 {
				return
			}
			if err := t.simulate(); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				return
			}
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go runOne()
	}
	wg.Wait()

	policy := extractPolicy[G](t, legal, cfg.Temperature, root.PolicyLen())
	result := Result{Policy: policy, Value: t.nodes[rootIdx].Q()}

	if firstErr != nil {
		return result, t, firstErr
	}
	select {
	case <-ctx.Done():
		return result, t, ErrCancelled
	default:
		return result, t, nil
	}
}

// simulate runs one SELECT/EXPAND-SIMULATE/BACKUP pass. It is the unit of
// work handed to each search goroutine.
func (t *tree[G]) simulate() error {
	t.mu.Lock()
	idx := rootIdx
	for {
		n := &t.nodes[idx]
		if n.terminal {
			value := game.Outcome(n.outcome, n.state.CurrentPlayer())
			t.backup(idx, value)
			t.mu.Unlock()
			return nil
		}
		if !n.expanded {
			break
		}
		idx = t.selectChild(idx)
		t.nodes[idx].virtualLoss++
	}

	leaf := idx
	n := &t.nodes[leaf]
	if status := n.state.Status(); status != game.Undecided {
		n.terminal = true
		n.outcome = status
		value := game.Outcome(status, n.state.CurrentPlayer())
		t.backup(leaf, value)
		t.mu.Unlock()
		return nil
	}
	leafState := n.state.(G)
	legal := n.state.LegalActions()
	t.mu.Unlock()

	pred, err := t.m.Apply(leafState)
	if err != nil {
		t.mu.Lock()
		t.revertVirtualLossPath(leaf)
		t.mu.Unlock()
		return err
	}

	t.mu.Lock()
	n = &t.nodes[leaf]
	if n.expanded {
		// Two goroutines raced to the same unexpanded leaf; the other one
		// got there first. Drop this simulation's work rather than
		// double-expanding.
		t.revertVirtualLossPath(leaf)
		t.mu.Unlock()
		return nil
	}
	t.expand(leaf, pred, legal)
	t.backup(leaf, pred.Value)
	t.mu.Unlock()
	return nil
}
