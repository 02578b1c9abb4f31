package doctor

import (
	"context"
	"sync"
)

// GateState is the lifecycle of first-use initialization.
type GateState int

const (
	// StateUninitialized means the pipeline has not run yet.
	StateUninitialized GateState = iota
	// StateInitializing means a caller is currently running the pipeline.
	StateInitializing
	// StateInitialized means the pipeline has completed and its result is
	// cached.
	StateInitialized
)

// InitGate serializes racing first-use initialization: exactly one caller
// runs the pipeline, all others block and then observe the completed result
// instead of re-running detection. A rerun happens only through an explicit
// Reset, never implicitly.
type InitGate struct {
	opts Options

	mu     sync.Mutex
	state  GateState
	result *Result
	err    error

	// replaceable for tests
	run func(context.Context, Options) (*Result, error)
}

// NewInitGate returns a gate that runs the pipeline with the given options
// on first use.
func NewInitGate(opts Options) *InitGate {
	return &InitGate{opts: opts, run: Run}
}

// Init runs the pipeline if it has not completed yet, or returns the cached
// outcome. Callers racing during the first run block until it finishes.
func (g *InitGate) Init(ctx context.Context) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateInitialized {
		return g.result, g.err
	}

	g.state = StateInitializing
	g.result, g.err = g.run(ctx, g.opts)
	g.state = StateInitialized
	return g.result, g.err
}

// State returns the current lifecycle state.
func (g *InitGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Reset discards the cached outcome so the next Init runs the pipeline again.
func (g *InitGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateUninitialized
	g.result, g.err = nil, nil
}
