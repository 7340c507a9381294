package fhost

import (
	"context"

	"github.com/mediocregopher/florun/fns"
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
)

// Notebook is the read-oriented handle over a Host's namespace tree: attach
// external data to Inputs, read History/State off any symbol, descend into
// child namespaces, and subscribe to the Update feed.
type Notebook struct {
	h  *Host
	ns *fns.Namespace
}

// Namespace descends into the sub-notebook rooted at sym, creating it (as an
// empty Namespace definition) if it doesn't already exist. Fails with
// ErrNotANamespace if sym names a non-namespace definition.
func (n *Notebook) Namespace(ctx context.Context, sym fsym.Symbol) (*Notebook, error) {
	child, err := n.ns.GetOrCreateChild(ctx, sym)
	if err != nil {
		return nil, err
	}
	return &Notebook{h: n.h, ns: child}, nil
}

// AttachInput attaches stream as sym's external data source. Fails with
// ErrUndefinedSymbol or ErrNotAnInputSymbol.
func AttachInput[T any](ctx context.Context, n *Notebook, sym fsym.Symbol, stream fstream.Upstream[T]) error {
	return fns.AttachInput[T](ctx, n.ns, sym, stream)
}

// ReadHistory allocates a full-fidelity reader of T over sym, materialising
// a Computing script on first read.
func ReadHistory[T any](n *Notebook, sym fsym.Symbol) (*fstream.HistoryReader[T], error) {
	return fns.ReadHistory[T](n.ns, sym)
}

// ReadState allocates a latest-value reader of T over sym, materialising a
// Computing script on first read.
func ReadState[T any](n *Notebook, sym fsym.Symbol) (*fstream.StateReader[T], error) {
	return fns.ReadState[T](n.ns, sym)
}

// SetRunIo toggles the run_io policy observed by Computing scripts compiled
// after this call; already-materialised ones are unaffected.
func (n *Notebook) SetRunIo(v bool) {
	n.ns.SetRunIo(v)
}

// Snapshot lists the symbols defined directly in n (not descending into
// child namespaces), for introspection (see fdebug).
func (n *Notebook) Snapshot() []fns.SnapshotEntry {
	return n.ns.Snapshot()
}

// Updates allocates a full-fidelity reader over the host-wide Update feed.
// The feed carries Updates from every namespace in the tree, not just n's;
// Update.Sym's owning namespace isn't otherwise identified, matching a flat
// notebook-wide activity log.
func (n *Notebook) Updates() (*fstream.HistoryReader[Update], error) {
	return n.h.updates.ReadHistory(), nil
}
