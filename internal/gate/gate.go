// Package gate tracks in-flight operator workflows so that background
// refreshes never overwrite a snapshot a workflow is still building on.
package gate

import (
	"context"
	"sync/atomic"
)

// Gate signals that multi-step work is in progress.  Begin marks the start
// of a workflow and returns the function that ends it; release is safe to
// call more than once.  Busy reports whether any workflow is running.
type Gate interface {
	Begin(ctx context.Context, name string) (release func(), err error)
	Busy(ctx context.Context) bool
}

// LocalGate is a process-local Gate backed by a counter.
type LocalGate struct {
	n atomic.Int64
}

// NewLocalGate returns an idle LocalGate.
func NewLocalGate() *LocalGate { return &LocalGate{} }

func (g *LocalGate) Begin(ctx context.Context, _ string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.n.Add(1)
	return once(func() { g.n.Add(-1) }), nil
}

func (g *LocalGate) Busy(context.Context) bool { return g.n.Load() > 0 }

// InFlight returns the number of running workflows.
func (g *LocalGate) InFlight() int64 { return g.n.Load() }

func once(f func()) func() {
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			f()
		}
	}
}
