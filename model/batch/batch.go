// Package batch implements the async batching wrapper of spec.md §4.4: a
// single collector goroutine coalesces concurrently issued single-state
// evaluation requests into one batched call to an inner model, bounded by
// either a max batch size or a max wait duration. This is the same
// "single collector thread with a bounded channel" shape Design Note 9
// offers as an implementation option, and mirrors the teacher's own
// collector-goroutine-over-a-channel pattern in mcts/search.go's
// doSearch/ch loop.
package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cortexo/zerocore/game"
	"github.com/cortexo/zerocore/model"
	"github.com/pkg/errors"
)

type request[G game.Game] struct {
	g         G
	resultCh  chan result
	cancelled *int32 // set to 1 via atomic if the caller gives up
}

type result struct {
	pred model.Prediction
	err  error
}

// Async wraps inner, batching concurrent Apply calls. Construct with New;
// Close stops the collector goroutine.
type Async[G game.Game] struct {
	inner        model.Model[G]
	maxBatchSize int
	maxWait      time.Duration

	requests chan request[G]
	done     chan struct{}
	closeMu  sync.Once
}

var _ model.Model[game.Game] = &Async[game.Game]{}

// New wraps inner with an async batching collector. maxBatchSize is a hard
// cap on how many requests are assembled into one inner call; maxWait
// bounds how long the first request in a forming batch waits before the
// batch is flushed regardless of size.
func New[G game.Game](inner model.Model[G], maxBatchSize int, maxWait time.Duration) *Async[G] {
	a := &Async[G]{
		inner:        inner,
		maxBatchSize: maxBatchSize,
		maxWait:      maxWait,
		requests:     make(chan request[G], maxBatchSize*4),
		done:         make(chan struct{}),
	}
	go a.collect()
	return a
}

// Close stops the collector goroutine. Pending requests already enqueued
// are still served from the in-flight batch; no new batches start.
func (a *Async[G]) Close() {
	a.closeMu.Do(func() { close(a.done) })
}

func (a *Async[G]) collect() {
	for {
		var batch []request[G]
		select {
		case <-a.done:
			return
		case r := <-a.requests:
			batch = append(batch, r)
		}

		timer := time.NewTimer(a.maxWait)
	fill:
		for len(batch) < a.maxBatchSize {
			select {
			case r := <-a.requests:
				batch = append(batch, r)
			case <-timer.C:
				break fill
			case <-a.done:
				timer.Stop()
				a.flush(batch)
				return
			}
		}
		timer.Stop()
		a.flush(batch)
	}
}

// flush runs the inner model on the collected batch and delivers results
// to each request's slot, in request order (§4.4's no-reordering
// contract). If the inner model fails, the error is replicated to every
// pending slot and the batch is discarded; the collector keeps running.
func (a *Async[G]) flush(batch []request[G]) {
	if len(batch) == 0 {
		return
	}
	gs := make([]G, len(batch))
	for i, r := range batch {
		gs[i] = r.g
	}

	preds, err := a.inner.ApplyBatch(gs)
	for i, r := range batch {
		if atomic.LoadInt32(r.cancelled) == 1 {
			continue // §4.4: still ran, result discarded
		}
		if err != nil {
			r.resultCh <- result{err: errors.Wrap(err, "batch: inner model failed")}
			continue
		}
		r.resultCh <- result{pred: preds[i]}
	}
}

// Apply enqueues g and suspends the caller until the collector delivers a
// result, with no way to cancel. Equivalent to ApplyCtx with
// context.Background().
func (a *Async[G]) Apply(g G) (model.Prediction, error) {
	return a.ApplyCtx(context.Background(), g)
}

// ApplyCtx enqueues g and suspends until either the collector delivers a
// result or ctx is done. On cancellation the request's slot is marked
// cancelled rather than pulled off the queue — the collector still runs it
// (cheap) and discards the result, exactly as spec.md §4.4 requires,
// rather than disturbing the in-flight batch's ordering.
func (a *Async[G]) ApplyCtx(ctx context.Context, g G) (model.Prediction, error) {
	r := request[G]{g: g, resultCh: make(chan result, 1), cancelled: new(int32)}
	a.requests <- r
	select {
	case res := <-r.resultCh:
		return res.pred, res.err
	case <-ctx.Done():
		atomic.StoreInt32(r.cancelled, 1)
		return model.Prediction{}, ctx.Err()
	}
}

// ApplyBatch here issues len(gs) independent Apply calls concurrently so
// that they themselves get coalesced by the collector; this is distinct
// from the inner model's own (efficient) ApplyBatch, which the collector
// calls directly in flush.
func (a *Async[G]) ApplyBatch(gs []G) ([]model.Prediction, error) {
	type indexed struct {
		i    int
		pred model.Prediction
		err  error
	}
	out := make([]model.Prediction, len(gs))
	ch := make(chan indexed, len(gs))
	for i, g := range gs {
		i, g := i, g
		go func() {
			pred, err := a.Apply(g)
			ch <- indexed{i, pred, err}
		}()
	}
	var firstErr error
	for range gs {
		r := <-ch
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		out[r.i] = r.pred
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (a *Async[G]) Swap() (model.Model[G], error) {
	swapped, err := a.inner.Swap()
	if err != nil {
		return a, err
	}
	return New[G](swapped, a.maxBatchSize, a.maxWait), nil
}

func (a *Async[G]) Copy() model.Model[G] {
	return New[G](a.inner.Copy(), a.maxBatchSize, a.maxWait)
}

func (a *Async[G]) BaseModel() model.Model[G]     { return a.inner.BaseModel() }
func (a *Async[G]) PlayingModel() model.Model[G]  { return a }
func (a *Async[G]) TrainingModel() model.Model[G] { return a.inner.TrainingModel() }

// NTasks advertises maxBatchSize to MCTS, per spec.md §4.4, so a search
// can keep that many traversals in flight concurrently.
func (a *Async[G]) NTasks() int { return a.maxBatchSize }

func (a *Async[G]) Features() []model.FeatureDescriptor { return a.inner.Features() }
