// Package fderiv implements the dependency-tracking reactive monad: a value
// paired with the set of symbols that were read to produce it, plus the
// read_state primitive that resolves a symbol's latest value while
// recording it as a dependency.
//
// Compiled computing scripts (see feval) are built out of Expr values using
// Pure, Bind and ReadState; evaluating an Expr against an Env either
// produces a State or reports ErrPending, meaning some dependency hasn't
// produced a value yet and the caller should retry once it does (driven by
// the dependency's own reader wake-up, per fstream).
package fderiv

import (
	"errors"

	"github.com/mediocregopher/florun/fsym"
)

// ErrPending signals that evaluation cannot proceed yet because a
// read_state call found its dependency not yet ready. It is never wrapped
// with merr context, since it isn't a failure -- it's a normal, expected
// suspension the caller retries after a wake-up.
var ErrPending = errors.New("fderiv: dependency not ready")

// State is a derivation result: a value plus the set of symbols read while
// producing it.
type State[T any] struct {
	Value T
	Deps  map[fsym.Symbol]struct{}
}

func unionDeps(a, b map[fsym.Symbol]struct{}) map[fsym.Symbol]struct{} {
	out := make(map[fsym.Symbol]struct{}, len(a)+len(b))
	for s := range a {
		out[s] = struct{}{}
	}
	for s := range b {
		out[s] = struct{}{}
	}
	return out
}

// Expr is a compiled, re-evaluatable derivation: a function from an Env to a
// State, or ErrPending/another error if it couldn't complete.
type Expr[T any] func(env *Env) (State[T], error)

// Pure lifts a plain value into an Expr with an empty dependency set.
func Pure[T any](v T) Expr[T] {
	return func(*Env) (State[T], error) {
		return State[T]{Value: v, Deps: map[fsym.Symbol]struct{}{}}, nil
	}
}

// Bind sequences m then f, merging their dependency sets. If m reports
// ErrPending (or any other error), f is never invoked and the error
// propagates as-is.
func Bind[A, B any](m Expr[A], f func(A) Expr[B]) Expr[B] {
	return func(env *Env) (State[B], error) {
		var zero State[B]

		sa, err := m(env)
		if err != nil {
			return zero, err
		}

		sb, err := f(sa.Value)(env)
		if err != nil {
			return zero, err
		}

		sb.Deps = unionDeps(sa.Deps, sb.Deps)
		return sb, nil
	}
}

// ReadState resolves the current state of sym against env, adding sym to
// the dependency set. If env hasn't yet opened a state reader for sym, one
// is allocated and cached on env so repeated evaluations of the same
// compiled Expr reuse it (and thus its wake-up) across re-evaluations.
func ReadState[T any](sym fsym.Symbol) Expr[T] {
	return func(env *Env) (State[T], error) {
		var zero State[T]

		v, err := pollStateOf[T](env, sym)
		if err != nil {
			return zero, err
		}

		return State[T]{Value: v, Deps: map[fsym.Symbol]struct{}{sym: {}}}, nil
	}
}
