package fhost

import (
	"context"

	"github.com/mediocregopher/florun/fedit"
)

// Editor is the mutate-oriented handle over a Host's namespace tree: submit
// streams of Edits to be applied, in order, against the root namespace.
type Editor struct {
	h *Host
}

// SendEdits submits stream for application. It returns immediately; edits
// are applied asynchronously, in the order stream produces them. Use Wait
// to block for completion.
func (e *Editor) SendEdits(ctx context.Context, stream fedit.EditStream) {
	e.h.applier.SendEdits(ctx, stream)
}

// Wait blocks until every edit stream submitted via SendEdits so far has
// terminated, or cancelCh is closed first.
func (e *Editor) Wait(cancelCh <-chan struct{}) error {
	return e.h.applier.Wait(cancelCh)
}
