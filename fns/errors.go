// Package fns implements the namespaced symbol table: a mapping from
// symbols to definitions (inputs, computing/streaming scripts, active
// scripts, script errors, or child namespaces), plus the materialisation of
// computing scripts into ActiveScript entries routed through an InputSource.
package fns

import (
	"context"
	"fmt"

	"github.com/mediocregopher/florun/fsym"
	"github.com/mediocregopher/florun/merr"
)

// ErrUnavailable indicates a feature that is intentionally disabled or not
// yet present (e.g. streaming scripts).
type ErrUnavailable struct{ Reason string }

func (e ErrUnavailable) Error() string { return "unavailable: " + e.Reason }

// ErrUndefinedSymbol indicates a lookup against a symbol with no entry.
type ErrUndefinedSymbol struct{ Sym fsym.Symbol }

func (e ErrUndefinedSymbol) Error() string {
	return fmt.Sprintf("undefined symbol: %s", e.Sym)
}

// ErrNotAnInputSymbol indicates an attach (or similar input-only operation)
// was attempted against a symbol that isn't an Input.
var ErrNotAnInputSymbol = fmt.Errorf("not an input symbol")

// ErrNotANamespace indicates a namespace operation (GetOrCreateChild) was
// attempted against a symbol whose definition isn't a sub-namespace.
var ErrNotANamespace = fmt.Errorf("not a namespace")

// ErrCannotReadFromANamespace indicates a read was attempted against a
// symbol defined as a sub-namespace.
var ErrCannotReadFromANamespace = fmt.Errorf("cannot read from a namespace")

// ErrIncorrectType indicates a type tag or evaluator output type mismatch.
var ErrIncorrectType = fmt.Errorf("incorrect type")

// ErrScript wraps a script compilation/evaluation failure. The message is
// human-readable only, per the error taxonomy's design -- it is not meant to
// be machine-parsed.
type ErrScript struct{ Message string }

func (e ErrScript) Error() string { return "script error: " + e.Message }

func wrap(ctx context.Context, sym fsym.Symbol, err error) error {
	ctx = annotateSymbol(ctx, sym)
	return merr.Wrap(ctx, err)
}
