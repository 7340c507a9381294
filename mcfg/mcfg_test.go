package mcfg

import (
	"testing"

	"github.com/mediocregopher/florun/mcmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulateFromCLI(t *testing.T) {
	root := new(mcmp.Component)
	a := Int(root, "a")
	child := root.Child("foo")
	b := Int(child, "b")
	c := Int(child, "c")

	err := Populate(root, &SourceCLI{Args: []string{"--a=1", "--foo-b=2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, *a)
	assert.Equal(t, 2, *b)
	assert.Equal(t, 0, *c)
}

func TestPopulateRequiredParamEnforced(t *testing.T) {
	root := new(mcmp.Component)
	Int(root, "a")
	child := root.Child("foo")
	Int(child, "b")
	c := Int(child, "c", ParamRequired())

	err := Populate(root, &SourceCLI{Args: []string{"--a=1", "--foo-b=2"}})
	assert.Error(t, err)

	err = Populate(root, &SourceCLI{Args: []string{"--a=1", "--foo-b=2", "--foo-c=3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, *c)
}

func TestParamDefault(t *testing.T) {
	root := new(mcmp.Component)
	addr := String(root, "addr", ParamDefault("127.0.0.1:6379"))
	require.NoError(t, Populate(root, nil))
	assert.Equal(t, "127.0.0.1:6379", *addr)
}

func TestPopulateFromEnv(t *testing.T) {
	root := new(mcmp.Component)
	child := root.Child("foo")
	b := Int(child, "bar-baz")

	src := &SourceEnv{Env: []string{"FOO_BAR_BAZ=42"}}
	require.NoError(t, Populate(root, src))
	assert.Equal(t, 42, *b)
}

func TestSourcesPrecedence(t *testing.T) {
	root := new(mcmp.Component)
	s := String(root, "s")

	src := Sources{
		&SourceEnv{Env: []string{"S=from-env"}},
		ParamValues{{Name: "s", Value: []byte(`"from-values"`)}},
	}
	require.NoError(t, Populate(root, src))
	assert.Equal(t, "from-values", *s)
}

func TestBoolFlag(t *testing.T) {
	root := new(mcmp.Component)
	f := Bool(root, "f")

	require.NoError(t, Populate(root, &SourceCLI{Args: []string{"--f"}}))
	assert.True(t, *f)
}
