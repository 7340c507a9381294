// Package mrun provides small helpers for spawning and waiting on
// goroutines, used throughout this module wherever work must continue in
// the background (draining an upstream, delivering deferred wake-ups,
// applying a multiplexed stream of edits) while the caller continues on.
package mrun

import (
	"context"
	"errors"
	"sync"
)

// Thread is a handle on a goroutine spawned by Go.
type Thread struct {
	done chan struct{}
	err  error
}

// Go spawns fn in a new goroutine, passing it ctx, and returns a Thread which
// can be used to wait for it to finish and retrieve its error.
//
// When ctx is Done, well-behaved fns are expected to return promptly; Go
// itself does not enforce this; callers which need a hard deadline should
// select on both the Thread and ctx.
func Go(ctx context.Context, fn func(context.Context) error) *Thread {
	th := &Thread{done: make(chan struct{})}
	go func() {
		defer close(th.done)
		th.err = fn(ctx)
	}()
	return th
}

// Wait blocks until the Thread's function returns, or ctx is Done, whichever
// happens first. In the latter case ctx.Err() is returned and the goroutine
// is left running.
func (th *Thread) Wait(ctx context.Context) error {
	select {
	case <-th.done:
		return th.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel which is closed once the Thread's function has
// returned.
func (th *Thread) Done() <-chan struct{} {
	return th.done
}

// ErrGroupDone is returned by Group.Wait if cancelCh is closed before every
// member Thread has finished.
var ErrGroupDone = errors.New("mrun: group wait canceled before all threads finished")

// Group tracks a dynamically growing set of Threads, e.g. one per incoming
// stream being multiplexed, and allows waiting on all of them at once.
type Group struct {
	mu      sync.Mutex
	threads []*Thread
}

// Add registers th with the Group.
func (g *Group) Add(th *Thread) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threads = append(g.threads, th)
}

// Go spawns fn via Go and adds the resulting Thread to the group in one
// step.
func (g *Group) Go(ctx context.Context, fn func(context.Context) error) {
	g.Add(Go(ctx, fn))
}

// Wait blocks until every Thread currently in the Group has finished, or
// cancelCh is closed. The first non-nil error encountered is returned; if
// more than one Thread errored only one of those errors is surfaced.
//
// Threads added to the Group after Wait has begun are still waited upon.
func (g *Group) Wait(cancelCh <-chan struct{}) error {
	var firstErr error
	i := 0
	for {
		g.mu.Lock()
		if i >= len(g.threads) {
			g.mu.Unlock()
			break
		}
		th := g.threads[i]
		g.mu.Unlock()

		select {
		case <-th.done:
			if th.err != nil && firstErr == nil {
				firstErr = th.err
			}
			i++
		case <-cancelCh:
			return ErrGroupDone
		}
	}
	return firstErr
}
