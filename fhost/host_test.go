package fhost

import (
	"context"
	"testing"
	"time"

	"github.com/mediocregopher/florun/fedit"
	"github.com/mediocregopher/florun/fns"
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEval() fns.Evaluator { return nil }

func TestHostDefineAttachRead(t *testing.T) {
	reg := fns.NewInputFactoryRegistry()
	fns.RegisterInputFactory[int](reg)

	h := New(nil, noEval, reg)
	defer h.Close()

	x := fsym.WithName("fhost-test-x-" + t.Name())

	ed := h.Editor()
	ch := make(chan fedit.Edit, 1)
	ch <- fedit.Edit{Kind: fedit.SetInputType, Sym: x, InputType: fstream.TagOf[int]()}
	close(ch)
	ed.SendEdits(context.Background(), fedit.FromChannel(ch))
	require.NoError(t, ed.Wait(nil))

	nb := h.Notebook()
	require.NoError(t, AttachInput[int](context.Background(), nb, x, fstream.FromSlice([]int{1, 2, 3})))

	hr, err := ReadHistory[int](nb, x)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var got []int
	for i := 0; i < 3; i++ {
		v, ok, err := hr.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestHostUpdatesFeedObservesDefine(t *testing.T) {
	reg := fns.NewInputFactoryRegistry()
	fns.RegisterInputFactory[int](reg)

	h := New(nil, noEval, reg)
	defer h.Close()

	nb := h.Notebook()
	ur, err := nb.Updates()
	require.NoError(t, err)

	x := fsym.WithName("fhost-test-updates-" + t.Name())
	ed := h.Editor()
	ch := make(chan fedit.Edit, 1)
	ch <- fedit.Edit{Kind: fedit.SetInputType, Sym: x, InputType: fstream.TagOf[int]()}
	close(ch)
	ed.SendEdits(context.Background(), fedit.FromChannel(ch))
	require.NoError(t, ed.Wait(nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var saw bool
	for i := 0; i < 10; i++ {
		u, ok, err := ur.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		if u.Kind == "define_input" && u.Sym == x {
			saw = true
			break
		}
	}
	assert.True(t, saw, "expected to observe a define_input update for x")
}

func TestNotebookNamespaceIsolation(t *testing.T) {
	reg := fns.NewInputFactoryRegistry()
	fns.RegisterInputFactory[int](reg)

	h := New(nil, noEval, reg)
	defer h.Close()

	nb := h.Notebook()
	childSym := fsym.WithName("fhost-test-child-" + t.Name())
	child, err := nb.Namespace(context.Background(), childSym)
	require.NoError(t, err)

	inner := fsym.WithName("fhost-test-inner-" + t.Name())
	ed := h.Editor()
	ch := make(chan fedit.Edit, 1)
	ch <- fedit.Edit{
		Kind: fedit.WithNamespace,
		Sym:  childSym,
		Inner: []fedit.Edit{
			{Kind: fedit.SetInputType, Sym: inner, InputType: fstream.TagOf[int]()},
		},
	}
	close(ch)
	ed.SendEdits(context.Background(), fedit.FromChannel(ch))
	require.NoError(t, ed.Wait(nil))

	_, err = ReadHistory[int](child, inner)
	assert.NoError(t, err)

	_, err = ReadHistory[int](nb, inner)
	assert.Error(t, err)
}
