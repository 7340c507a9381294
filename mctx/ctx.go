// Package mctx extends the standard context package with two pieces of
// functionality used throughout this module: an ancestry tree so a Context
// can enumerate the children that were derived from it, and a simple annotation
// mechanism for attaching human-readable runtime metadata to a Context for
// use by mlog and merr.
//
// All functions in this package are safe for concurrent use.
package mctx

import (
	"context"
	"fmt"
)

type ancestryKey int

const (
	ancestryKeyChildren ancestryKey = iota
	ancestryKeyChildrenMap
	ancestryKeyPath
)

// NewChild returns a new Context descended from parent, whose Path is the
// parent's Path with name appended. It does not modify parent; use WithChild
// to make the child discoverable via Children.
func NewChild(parent context.Context, name string) context.Context {
	childPath := append(pathCopy(parent), name)
	child := context.WithValue(parent, ancestryKeyChildren, nil)
	child = context.WithValue(child, ancestryKeyChildrenMap, nil)
	child = context.WithValue(child, ancestryKeyPath, childPath)
	return child
}

// WithChild returns a modified parent which holds child in its Children
// list, keyed by the name child was given via NewChild. Panics if a child of
// that name has already been added.
func WithChild(parent, child context.Context) context.Context {
	name, ok := Name(child)
	if !ok {
		panic("child Context was not created via NewChild")
	}

	children, childrenMap := childrenCopy(parent)
	if _, ok := childrenMap[name]; ok {
		panic(fmt.Sprintf("child with name %q already exists", name))
	}
	children = append(children, child)
	childrenMap[name] = len(children) - 1

	parent = context.WithValue(parent, ancestryKeyChildren, children)
	parent = context.WithValue(parent, ancestryKeyChildrenMap, childrenMap)
	return parent
}

// Child returns the Context previously added to parent via WithChild under
// the given name, or nil if there is none.
func Child(parent context.Context, name string) context.Context {
	childrenMap, _ := parent.Value(ancestryKeyChildrenMap).(map[string]int)
	i, ok := childrenMap[name]
	if !ok {
		return nil
	}
	return parent.Value(ancestryKeyChildren).([]context.Context)[i]
}

// Children returns every Context added to parent via WithChild, in the order
// they were added.
func Children(parent context.Context) []context.Context {
	children, _ := parent.Value(ancestryKeyChildren).([]context.Context)
	return children
}

// Path returns the sequence of names passed to NewChild to produce ctx, or
// nil if ctx was not produced by NewChild.
func Path(ctx context.Context) []string {
	path, _ := ctx.Value(ancestryKeyPath).([]string)
	return path
}

// Name returns the last element of Path, i.e. the name ctx was given when it
// was created via NewChild.
func Name(ctx context.Context) (string, bool) {
	path := Path(ctx)
	if len(path) == 0 {
		return "", false
	}
	return path[len(path)-1], true
}

func pathCopy(ctx context.Context) []string {
	path := Path(ctx)
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return out
}

func childrenCopy(parent context.Context) ([]context.Context, map[string]int) {
	children := Children(parent)
	outChildren := make([]context.Context, len(children), len(children)+1)
	copy(outChildren, children)

	childrenMap, _ := parent.Value(ancestryKeyChildrenMap).(map[string]int)
	outChildrenMap := make(map[string]int, len(childrenMap)+1)
	for k, v := range childrenMap {
		outChildrenMap[k] = v
	}
	return outChildren, outChildrenMap
}
