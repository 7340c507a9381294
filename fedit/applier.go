package fedit

import (
	"context"

	"github.com/mediocregopher/florun/fns"
	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mlog"
	"github.com/mediocregopher/florun/mrun"
)

// EditStream is a source of Edits to apply, in order. Next blocks until an
// Edit is available, the stream ends (false with a nil error), or ctx is
// canceled; see FromChannel for the channel-backed implementation.
type EditStream interface {
	Next(ctx context.Context) (Edit, bool, error)
}

// chanEditStream adapts a Go channel of Edits into an EditStream; closing
// the channel signals end-of-stream.
type chanEditStream struct {
	ch <-chan Edit
}

// FromChannel returns an EditStream fed by ch.
func FromChannel(ch <-chan Edit) EditStream {
	return chanEditStream{ch: ch}
}

func (c chanEditStream) Next(ctx context.Context) (Edit, bool, error) {
	select {
	case e, ok := <-c.ch:
		if !ok {
			return Edit{}, false, nil
		}
		return e, true, nil
	case <-ctx.Done():
		return Edit{}, false, ctx.Err()
	}
}

// Applier applies Edits to a root Namespace. It holds no lock of its own:
// each mutation is serialised by the affected Namespace's own lock, so
// mutations from concurrently-submitted edit streams may interleave with
// one another between mutations. The relative order *between*
// streams is unspecified; each stream's own order is preserved because each
// stream is drained by exactly one goroutine.
type Applier struct {
	root     *fns.Namespace
	registry *fns.InputFactoryRegistry
	cmp      *mcmp.Component
	group    mrun.Group
}

// NewApplier constructs an Applier over root. registry resolves the dynamic
// TypeTag carried by SetInputType edits back to a concrete InputSource
// factory (see fns.RegisterInputFactory).
func NewApplier(cmp *mcmp.Component, root *fns.Namespace, registry *fns.InputFactoryRegistry) *Applier {
	return &Applier{root: root, registry: registry, cmp: cmp}
}

// SendEdits submits stream for application against the root namespace (or
// one of its descendants, for edits nested under WithNamespace). It spawns
// a goroutine that drains stream in order and returns immediately; use Wait
// to block for completion of every stream submitted so far.
func (a *Applier) SendEdits(ctx context.Context, stream EditStream) {
	a.group.Go(ctx, func(ctx context.Context) error {
		for {
			e, ok, err := stream.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := a.apply(ctx, a.root, e); err != nil {
				a.logger().Warn("edit application failed", ctx)
			}
		}
	})
}

// Wait blocks until every EditStream submitted via SendEdits so far has
// terminated, or cancelCh is closed first.
func (a *Applier) Wait(cancelCh <-chan struct{}) error {
	return a.group.Wait(cancelCh)
}

func (a *Applier) logger() *mlog.Logger {
	if a.cmp == nil {
		return mlog.Null
	}
	return mlog.From(a.cmp)
}

func (a *Applier) apply(ctx context.Context, ns *fns.Namespace, e Edit) error {
	switch e.Kind {
	case Clear:
		ns.Clear()
		return nil
	case Undefine:
		ns.Undefine(e.Sym)
		return nil
	case SetInputType:
		return a.registry.DefineInputTagged(ns, e.Sym, e.InputType)
	case SetStreamingScript:
		ns.SetStreamingScript(e.Sym, e.Text)
		return nil
	case SetComputingScript:
		ns.SetComputingScript(e.Sym, e.Text)
		return nil
	case SetRunIo:
		ns.SetRunIo(e.RunIo)
		return nil
	case WithNamespace:
		child, err := ns.GetOrCreateChild(ctx, e.Sym)
		if err != nil {
			return err
		}
		for _, inner := range e.Inner {
			if err := a.apply(ctx, child, inner); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
