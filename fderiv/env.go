package fderiv

import (
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
)

// StateSource is the capability an Env needs from a namespace: resolving a
// symbol to its (possibly just-materialised) ErasedInputSource for reading.
// Satisfied structurally by *fns.Namespace; fderiv does not import fns, to
// keep the dependency edge one-directional.
type StateSource interface {
	ResolveForRead(sym fsym.Symbol) (fstream.ErasedInputSource, error)
}

// Env carries everything one running (or re-running) derivation needs: the
// namespace to resolve symbols against, and a cache of per-symbol state
// readers so that successive re-evaluations of the same compiled Expr reuse
// readers -- and thus their wakers -- rather than reallocating them.
type Env struct {
	src     StateSource
	readers map[fsym.Symbol]any // holds *fstream.StateReader[T], boxed
}

// NewEnv constructs an Env backed by src with an empty reader cache.
func NewEnv(src StateSource) *Env {
	return &Env{src: src, readers: map[fsym.Symbol]any{}}
}

func pollStateOf[T any](env *Env, sym fsym.Symbol) (T, error) {
	var zero T

	cached, ok := env.readers[sym]
	if !ok {
		erased, err := env.src.ResolveForRead(sym)
		if err != nil {
			return zero, err
		}
		reader, err := fstream.ReadStateErased[T](erased)
		if err != nil {
			return zero, err
		}
		env.readers[sym] = reader
		cached = reader
	}

	reader := cached.(*fstream.StateReader[T])
	status, v, err := reader.Poll()
	switch status {
	case fstream.Ready:
		return v, nil
	case fstream.Error:
		return zero, err
	default: // Pending or Done: no value produced yet, stay pending.
		return zero, ErrPending
	}
}
