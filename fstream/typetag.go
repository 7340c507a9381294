// Package fstream implements the multi-reader input-stream core: a single
// upstream producer fans out to many history readers (full fidelity,
// back-pressured) and many state readers (latest-value only), with
// wake-up propagation deferred outside the core's lock.
package fstream

import "reflect"

// TypeTag is an abstract identifier for a runtime type, used to check that a
// reader or attached stream matches an InputSource's declared element type.
// Equality is the only operation; TypeTag values are comparable with ==.
type TypeTag struct {
	rt reflect.Type
}

// TagOf returns the TypeTag for T.
func TagOf[T any]() TypeTag {
	var zero T
	return TypeTag{rt: reflect.TypeOf(&zero).Elem()}
}

// Equal reports whether tt and o identify the same type.
func (tt TypeTag) Equal(o TypeTag) bool {
	return tt.rt == o.rt
}

func (tt TypeTag) String() string {
	if tt.rt == nil {
		return "<nil>"
	}
	return tt.rt.String()
}
