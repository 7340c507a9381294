package fns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mediocregopher/florun/fderiv"
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotifier(t *testing.T) *fstream.Notifier {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return fstream.NewNotifier(ctx)
}

// addOneEvaluator compiles any source text other than "!!!" into "read_state(the
// given dependency symbol) + 1", and "!!!" into a compile failure. It's
// deliberately narrow: just enough to exercise materialisation, dependency
// tracking and error stickiness (S6, S7) without a real parser.
type addOneEvaluator struct {
	dep fsym.Symbol
}

func (e *addOneEvaluator) Compile(symName, sourceText string, runIO bool) (CompiledScript, error) {
	if sourceText == "!!!" {
		return CompiledScript{}, errors.New("parse error near '!'")
	}
	dep := e.dep
	return CompiledScript{
		Tag: fstream.TagOf[int](),
		Start: func(notifier *fstream.Notifier, env *fderiv.Env) fstream.ErasedInputSource {
			src := fstream.NewInputSource[int](notifier)
			expr := fderiv.Bind(fderiv.ReadState[int](dep), func(v int) fderiv.Expr[int] {
				return fderiv.Pure(v + 1)
			})
			src.Attach(newExprUpstream(env, expr))
			return src
		},
	}, nil
}

// exprUpstream adapts a re-armable fderiv.Expr into an fstream.Upstream: each
// Poll re-evaluates the expression, translating fderiv.ErrPending into
// PollStatus Pending. This stands in for feval's ComputingStream, which this
// package's tests don't otherwise need the full version of.
type exprUpstream struct {
	env  *fderiv.Env
	expr fderiv.Expr[int]
}

func newExprUpstream(env *fderiv.Env, expr fderiv.Expr[int]) fstream.Upstream[int] {
	return &exprUpstream{env: env, expr: expr}
}

func (u *exprUpstream) Poll() (fstream.PollStatus, int, error) {
	s, err := u.expr(u.env)
	if errors.Is(err, fderiv.ErrPending) {
		return fstream.Pending, 0, nil
	}
	if err != nil {
		return fstream.Error, 0, err
	}
	return fstream.Ready, s.Value, nil
}

func TestTypeMismatch(t *testing.T) {
	ns := New(nil, testNotifier(t), nil, nil)
	x := fsym.WithName("fns-test-x-" + t.Name())
	DefineInput[int32](ns, x)

	_, err := ReadHistory[uint32](ns, x)
	assert.ErrorIs(t, err, ErrIncorrectType)
}

func TestUndefinedSymbol(t *testing.T) {
	ns := New(nil, testNotifier(t), nil, nil)
	y := fsym.WithName("fns-test-y-" + t.Name())

	_, err := ReadHistory[int32](ns, y)
	var undef ErrUndefinedSymbol
	require.True(t, errors.As(err, &undef))
	assert.Equal(t, y, undef.Sym)
}

func TestUndefineThenReadFails(t *testing.T) {
	ns := New(nil, testNotifier(t), nil, nil)
	x := fsym.WithName("fns-test-undefine-" + t.Name())
	DefineInput[int32](ns, x)

	_, err := ReadHistory[int32](ns, x)
	require.NoError(t, err)

	ns.Undefine(x)
	_, err = ReadHistory[int32](ns, x)
	assert.Error(t, err)
}

func TestDerivedScriptObservesDependency(t *testing.T) {
	notifier := testNotifier(t)
	ns := New(nil, notifier, nil, nil)

	x := fsym.WithName("fns-test-derived-x-" + t.Name())
	y := fsym.WithName("fns-test-derived-y-" + t.Name())

	DefineInput[int](ns, x)
	ns.evalFac = func() Evaluator { return &addOneEvaluator{dep: x} }
	ns.SetComputingScript(y, "read_state(x) + 1")

	require.NoError(t, AttachInput[int](context.Background(), ns, x, fstream.FromSlice([]int{3})))

	sr, err := ReadState[int](ns, y)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, ok, err := sr.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestScriptErrorIsSticky(t *testing.T) {
	ns := New(nil, testNotifier(t), func() Evaluator { return &addOneEvaluator{} }, nil)
	z := fsym.WithName("fns-test-script-error-" + t.Name())
	ns.SetComputingScript(z, "!!!")

	_, err1 := ReadHistory[int](ns, z)
	var scriptErr1 ErrScript
	require.True(t, errors.As(err1, &scriptErr1))

	_, err2 := ReadHistory[int](ns, z)
	var scriptErr2 ErrScript
	require.True(t, errors.As(err2, &scriptErr2))

	assert.Equal(t, scriptErr1.Message, scriptErr2.Message)
}

func TestNamespaceIsolation(t *testing.T) {
	ns := New(nil, testNotifier(t), nil, nil)
	outer := fsym.WithName("fns-test-outer-" + t.Name())
	DefineInput[int](ns, outer)

	childSym := fsym.WithName("fns-test-child-" + t.Name())
	child, err := ns.GetOrCreateChild(context.Background(), childSym)
	require.NoError(t, err)

	inner := fsym.WithName("fns-test-inner-" + t.Name())
	DefineInput[int](child, inner)

	// inner is only visible in child, not in ns.
	_, err = ReadHistory[int](ns, inner)
	assert.Error(t, err)

	// outer is only visible in ns, not in child.
	_, err = ReadHistory[int](child, outer)
	assert.Error(t, err)
}

func TestGetOrCreateChildRejectsNonNamespace(t *testing.T) {
	ns := New(nil, testNotifier(t), nil, nil)
	x := fsym.WithName("fns-test-notns-" + t.Name())
	DefineInput[int](ns, x)

	_, err := ns.GetOrCreateChild(context.Background(), x)
	assert.ErrorIs(t, err, ErrNotANamespace)
}
