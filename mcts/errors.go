package mcts

import "github.com/pkg/errors"

// ErrCancelled is returned by Search when a caller-supplied context is
// done before Power simulations complete. This is not a failure: Search
// still returns the best-effort improved policy computed so far; callers
// that only care about getting a move out in time can ignore the error
// and use the result.
var ErrCancelled = errors.New("mcts: search cancelled before completion")

// ErrInvalidConfig is returned when a Config fails IsValid, e.g. a
// non-positive Power or a Dilution outside [0,1].
var ErrInvalidConfig = errors.New("mcts: invalid config")
