// Package fhost implements the host façade: a Notebook view (read/attach)
// and an Editor view (mutate) over one shared root namespace, plus the
// NotebookUpdate event stream that mirrors every visible change to it.
package fhost

import (
	"github.com/mediocregopher/florun/fsym"
	"github.com/mediocregopher/florun/mtime"
)

// Update describes a single visible change to a namespace: a symbol
// defined/undefined, a script (re)compiled or materialised, a script error
// raised, or a child namespace created.
type Update struct {
	Time   mtime.TS
	Kind   string
	Sym    fsym.Symbol
	Detail string
}
