package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/boardmesh/pkg/layout"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned when a newer evaluation started before this
// one finished.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

// evalResult passes evaluation results through channels.
type evalResult struct {
	layout *layout.Layout
	errors []EvalError
	err    error
}

// wait blocks until ch delivers, ctx ends or timeout elapses. A result
// from an evaluation older than the engine's current generation is
// discarded with ErrSuperseded.
//
// On timeout or cancellation the evaluating goroutine keeps running; its
// buffered send completes and the result is dropped.
func (e *Engine) wait(ctx context.Context, ch <-chan evalResult, gen uint64, timeout time.Duration) (*layout.Layout, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if gen != e.currentGeneration() {
			return nil, nil, ErrSuperseded
		}
		return res.layout, res.errors, res.err

	case <-ctx.Done():
		return nil, nil, fmt.Errorf("evaluation canceled: %w", ctx.Err())

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", timeout)
	}
}

func (e *Engine) currentGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}
