package mctx

import (
	"context"
	"fmt"
)

type annotateKey struct{}

type annotation struct {
	prev     *annotation
	key, val interface{}
}

// Annotations is an unordered set of key/value pairs gathered from a Context's
// annotation chain, as produced by EvaluateAnnotations.
type Annotations map[interface{}]interface{}

// StringSlice returns the Annotations as a slice of [key, value] string
// pairs. If sorted is true the pairs are ordered by key for deterministic
// output (used by error messages and logs).
func (a Annotations) StringSlice(sorted bool) [][2]string {
	out := make([][2]string, 0, len(a))
	for k, v := range a {
		out = append(out, [2]string{toString(k), toString(v)})
	}
	if sorted {
		for i := 1; i < len(out); i++ {
			for j := i; j > 0 && out[j][0] < out[j-1][0]; j-- {
				out[j], out[j-1] = out[j-1], out[j]
			}
		}
	}
	return out
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// Annotate returns a copy of ctx with the given key/value pairs appended to
// its annotation chain. kv must have an even number of elements.
func Annotate(ctx context.Context, kv ...interface{}) context.Context {
	prev, _ := ctx.Value(annotateKey{}).(*annotation)
	for i := 0; i+1 < len(kv); i += 2 {
		prev = &annotation{prev: prev, key: kv[i], val: kv[i+1]}
	}
	return context.WithValue(ctx, annotateKey{}, prev)
}

// EvaluateAnnotations walks ctx's annotation chain (most-recent first) and
// merges every key/value pair into out, without overwriting keys already
// present in out.
func EvaluateAnnotations(ctx context.Context, out Annotations) {
	if ctx == nil {
		return
	}
	a, _ := ctx.Value(annotateKey{}).(*annotation)
	for a != nil {
		if _, ok := out[a.key]; !ok {
			out[a.key] = a.val
		}
		a = a.prev
	}
}

// MergeAnnotations returns a Context whose annotation chain is dst's
// followed by src's, such that EvaluateAnnotations on the result sees both
// (dst's entries taking precedence on key collision).
func MergeAnnotations(dst, src context.Context) context.Context {
	if dst == nil {
		return src
	}
	if src == nil {
		return dst
	}
	merged := Annotations{}
	EvaluateAnnotations(dst, merged)
	EvaluateAnnotations(src, merged)

	out := dst
	for k, v := range merged {
		out = Annotate(out, k, v)
	}
	return out
}
