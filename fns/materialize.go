package fns

import (
	"context"

	"github.com/mediocregopher/florun/fderiv"
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
)

// ResolveForRead resolves sym to the ErasedInputSource that should back a
// read: Input and ActiveScript entries delegate directly; Computing entries
// are materialised into an ActiveScript on first read (see materializeLocked);
// ScriptError entries fail with the cached message; Namespace entries fail
// with ErrCannotReadFromANamespace; an absent entry fails with
// ErrUndefinedSymbol.
//
// Satisfies fderiv.StateSource, so a *Namespace can back an Env directly.
func (ns *Namespace) ResolveForRead(sym fsym.Symbol) (fstream.ErasedInputSource, error) {
	return ns.resolveForRead(context.Background(), sym)
}

func (ns *Namespace) resolveForRead(ctx context.Context, sym fsym.Symbol) (fstream.ErasedInputSource, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	def, ok := ns.defs[sym]
	if !ok {
		return nil, wrap(ctx, sym, ErrUndefinedSymbol{Sym: sym})
	}

	switch def.kind {
	case defInput, defActiveScript:
		return def.source, nil
	case defScriptError:
		return nil, wrap(ctx, sym, ErrScript{Message: def.errMsg})
	case defComputing:
		return ns.materializeLocked(ctx, sym, def)
	case defStreaming:
		return nil, wrap(ctx, sym, ErrUnavailable{Reason: "streaming scripts"})
	case defNamespace:
		return nil, wrap(ctx, sym, ErrCannotReadFromANamespace)
	default:
		return nil, wrap(ctx, sym, ErrIncorrectType)
	}
}

// materializeLocked compiles def's source text (creating the namespace's
// evaluator instance on first use), converts a compile failure into a cached
// ScriptError, and on success builds the ActiveScript's InputSource and
// stores it in place of the Computing entry. Must be called with ns.mu held.
func (ns *Namespace) materializeLocked(ctx context.Context, sym fsym.Symbol, def *symbolDef) (fstream.ErasedInputSource, error) {
	if ns.eval == nil {
		ns.eval = ns.evalFac()
	}

	symName, _ := sym.Name()
	compiled, err := ns.eval.Compile(symName, def.sourceText, ns.runIO)
	if err != nil {
		def.kind = defScriptError
		def.errMsg = err.Error()
		ns.logger().Error("script compilation failed", ctx)
		ns.emit("script_error", sym, def.errMsg)
		return nil, wrap(ctx, sym, ErrScript{Message: def.errMsg})
	}

	env := fderiv.NewEnv(ns)
	source := compiled.Start(ns.notifier, env)

	def.kind = defActiveScript
	def.source = source
	def.sourceText = ""
	ns.emit("materialize", sym, "")

	return source, nil
}

// ReadHistory resolves sym for reading and allocates a full-fidelity reader
// of T over it.
func ReadHistory[T any](ns *Namespace, sym fsym.Symbol) (*fstream.HistoryReader[T], error) {
	src, err := ns.resolveForRead(context.Background(), sym)
	if err != nil {
		return nil, err
	}
	r, err := fstream.ReadHistoryErased[T](src)
	if err != nil {
		return nil, wrap(context.Background(), sym, err)
	}
	return r, nil
}

// ReadState resolves sym for reading and allocates a latest-value reader of
// T over it.
func ReadState[T any](ns *Namespace, sym fsym.Symbol) (*fstream.StateReader[T], error) {
	src, err := ns.resolveForRead(context.Background(), sym)
	if err != nil {
		return nil, err
	}
	r, err := fstream.ReadStateErased[T](src)
	if err != nil {
		return nil, wrap(context.Background(), sym, err)
	}
	return r, nil
}
