// Package feval implements the one concrete script evaluator this module
// drives the rest of the stack with: a minimal arithmetic expression
// language over float64, with bare identifiers resolving to read_state
// calls against same-named symbols. It satisfies fns.Evaluator.
//
// An expression with no identifiers compiles to a plain float64 result: the
// ComputingStream it drives yields one value and terminates. An expression
// referencing one or more identifiers compiles to a DerivedState[float64]
// result: the ComputingStream re-arms after each value, re-evaluating
// whenever a dependency's state changes.
package feval

import (
	"errors"

	"github.com/mediocregopher/florun/fderiv"
	"github.com/mediocregopher/florun/fns"
	"github.com/mediocregopher/florun/fstream"
)

// Evaluator is the feval implementation of fns.Evaluator. It holds no
// mutable state of its own; every Namespace gets its own instance via
// NewFactory, matching fns.EvaluatorFactory's "fresh instance per namespace"
// contract, though this evaluator has nothing namespace-specific to carry.
type Evaluator struct{}

// NewFactory returns an fns.EvaluatorFactory constructing fresh feval
// Evaluators.
func NewFactory() fns.EvaluatorFactory {
	return func() fns.Evaluator { return &Evaluator{} }
}

// Compile parses sourceText as an arithmetic expression and returns a
// CompiledScript driving it. runIO is accepted but unused: this language has
// no side-effecting primitives, so there is nothing for the run_io policy to
// gate.
func (e *Evaluator) Compile(symName, sourceText string, runIO bool) (fns.CompiledScript, error) {
	node, err := parse(sourceText)
	if err != nil {
		return fns.CompiledScript{}, err
	}

	expr := compile(node)
	reactive := len(identifiers(node)) > 0

	return fns.CompiledScript{
		Tag: fstream.TagOf[float64](),
		Start: func(notifier *fstream.Notifier, env *fderiv.Env) fstream.ErasedInputSource {
			src := fstream.NewInputSource[float64](notifier)
			src.Attach(newComputingUpstream(env, expr, reactive))
			return src
		},
	}, nil
}

var errEmptyExpr = errors.New("feval: empty expression")
