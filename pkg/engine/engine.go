// Package engine evaluates Lisp layout scripts into layout.Layout values.
// Scripts run in a sandboxed zygomys environment, one fresh environment
// per evaluation.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/boardmesh/pkg/layout"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError is a parse or runtime error in a script.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates layout scripts. It is safe for concurrent use; when
// calls overlap, only the most recent one returns a layout.
type Engine struct {
	// Timeout bounds each evaluation. Zero means EvalTimeout.
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate is EvaluateContext with a background context.
func (e *Engine) Evaluate(source string) (*layout.Layout, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext runs source and returns the layout it built.
//
// Return semantics:
//   - On success: layout, nil, nil
//   - On a script error: nil, eval errors, nil
//   - On timeout, cancellation, panic or supersession: nil, nil, error
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*layout.Layout, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = EvalTimeout
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		l, evalErrs, err := evaluate(source)
		ch <- evalResult{layout: l, errors: evalErrs, err: err}
	}()

	return e.wait(ctx, ch, gen, timeout)
}

// evaluate runs source in a fresh sandbox. Builtins append to the layout
// as the script runs, so a script that fails part way returns no layout.
func evaluate(source string) (*layout.Layout, []EvalError, error) {
	l := &layout.Layout{}
	if strings.TrimSpace(source) == "" {
		return l, nil, nil
	}

	// No filesystem or syscall access from scripts.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, l)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return l, nil, nil
}

// Line-numbered zygomys error formats.
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`),
	regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`),
}

// parseZygomysError converts a zygomys error into EvalErrors, extracting
// the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range linePatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
