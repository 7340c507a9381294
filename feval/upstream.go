package feval

import (
	"errors"

	"github.com/mediocregopher/florun/fderiv"
	"github.com/mediocregopher/florun/fstream"
)

// computingUpstream is this module's ComputingStream (SPEC_FULL §4.4): it
// re-evaluates expr against env on every Poll while an evaluation isn't yet
// Ready, translating fderiv.ErrPending into PollStatus Pending.
//
// A non-reactive (dependency-free) expression yields exactly one value then
// reports Done forever after, matching the "plain T" branch of §4.4. A
// reactive expression (one or more read_state dependencies) keeps
// re-evaluating after each yielded value, matching the "DerivedState<T>"
// branch.
type computingUpstream struct {
	env      *fderiv.Env
	expr     fderiv.Expr[float64]
	reactive bool

	done bool
}

func newComputingUpstream(env *fderiv.Env, expr fderiv.Expr[float64], reactive bool) fstream.Upstream[float64] {
	return &computingUpstream{env: env, expr: expr, reactive: reactive}
}

func (u *computingUpstream) Poll() (fstream.PollStatus, float64, error) {
	if u.done {
		return fstream.Done, 0, nil
	}

	s, err := u.expr(u.env)
	if errors.Is(err, fderiv.ErrPending) {
		return fstream.Pending, 0, nil
	}
	if err != nil {
		u.done = true
		return fstream.Error, 0, err
	}

	if !u.reactive {
		u.done = true
	}
	return fstream.Ready, s.Value, nil
}
