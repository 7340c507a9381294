package fhost

import (
	"context"

	"github.com/mediocregopher/florun/fedit"
	"github.com/mediocregopher/florun/fns"
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mtime"
)

// updatesBuffer is the capacity of the channel backing the host-wide update
// feed. A feed reader that never polls causes Emit to start dropping
// updates once this many have accumulated, rather than blocking the
// namespace operation that triggered the update.
const updatesBuffer = 1024

// Host owns a shared root Namespace and exposes two kinds of handle over
// it: Notebook (read-oriented) and Editor (mutate-oriented). Host itself
// also implements fns.UpdateSink, collecting Updates from every Namespace
// in the tree (root and descendants) onto one fan-out InputSource.
type Host struct {
	cancel context.CancelFunc

	root     *fns.Namespace
	notifier *fstream.Notifier
	registry *fns.InputFactoryRegistry
	applier  *fedit.Applier

	updatesCh chan Update
	updates   *fstream.InputSource[Update]
}

// New constructs a Host with a fresh root Namespace. cmp, if non-nil, roots
// the component tree (logging, config) for everything built on this Host.
// evalFac constructs the script evaluator; registry resolves SetInputType's
// TypeTag to a concrete Go type (see fns.RegisterInputFactory).
func New(cmp *mcmp.Component, evalFac fns.EvaluatorFactory, registry *fns.InputFactoryRegistry) *Host {
	ctx, cancel := context.WithCancel(context.Background())
	notifier := fstream.NewNotifier(ctx)

	h := &Host{
		cancel:    cancel,
		notifier:  notifier,
		registry:  registry,
		updatesCh: make(chan Update, updatesBuffer),
	}
	h.updates = fstream.NewInputSource[Update](notifier)
	h.updates.Attach(fstream.FromChannel(h.updatesCh, nil))

	h.root = fns.New(cmp, notifier, evalFac, h)
	h.applier = fedit.NewApplier(cmp, h.root, registry)

	return h
}

// Close cancels the wake-up notifier's background goroutine. It does not
// cancel edit streams submitted through Editor.SendEdits: those keep running
// until their stream ends or the ctx given to SendEdits is canceled.
func (h *Host) Close() {
	h.cancel()
}

// Emit implements fns.UpdateSink, translating a namespace-level change into
// an Update pushed onto the host-wide update feed.
func (h *Host) Emit(kind string, sym fsym.Symbol, detail string) {
	u := Update{Time: mtime.NowTS(), Kind: kind, Sym: sym, Detail: detail}
	select {
	case h.updatesCh <- u:
	default:
		// Feed is backed up; drop rather than block whatever namespace
		// operation triggered this Emit.
	}
}

// Notebook returns the read-oriented view of this Host's root namespace.
func (h *Host) Notebook() *Notebook {
	return &Notebook{h: h, ns: h.root}
}

// Editor returns the mutate-oriented view of this Host's root namespace.
func (h *Host) Editor() *Editor {
	return &Editor{h: h}
}
