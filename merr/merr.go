// Package merr extends the standard errors package with contextual
// annotations and embedded stack traces.
//
// Errors produced by this package wrap an underlying error together with a
// Context (see mctx) whose annotations are folded into the error's message,
// and the stack frame at which the error was created. As is recommended for
// Go in general, errors.Is and errors.As should be used to test error
// identity rather than string comparison.
package merr

import (
	"context"
	"errors"
	"strings"

	"github.com/mediocregopher/florun/mctx"
)

// Error wraps an error with the Context that was active when it was
// created, plus a captured stack frame.
type Error struct {
	Err   error
	Ctx   context.Context
	Frame Frame
}

// Error implements the error interface, rendering the wrapped error's
// message followed by every annotation on Ctx.
func (e Error) Error() string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(e.Err.Error()))

	annotations := mctx.Annotations{}
	mctx.EvaluateAnnotations(e.Ctx, annotations)
	annotations["at"] = e.Frame.String()

	for _, kv := range annotations.StringSlice(true) {
		sb.WriteString("\n\t* ")
		sb.WriteString(kv[0])
		sb.WriteString(": ")
		sb.WriteString(kv[1])
	}

	return sb.String()
}

// Unwrap implements the implicit interface used by errors.Is/errors.As.
func (e Error) Unwrap() error {
	return e.Err
}

// WrapSkip is like Wrap but allows skipping extra stack frames when
// capturing the Frame, for helpers that themselves wrap Wrap.
func WrapSkip(ctx context.Context, err error, skip int) error {
	if err == nil {
		return nil
	}

	var existing Error
	if errors.As(err, &existing) {
		existing.Ctx = mctx.MergeAnnotations(existing.Ctx, ctx)
		return existing
	}

	return Error{
		Err:   err,
		Ctx:   ctx,
		Frame: captureFrame(skip + 1),
	}
}

// Wrap annotates err with ctx, capturing a stack frame the first time err is
// wrapped. Wrapping the same *Error again merges in the new Context's
// annotations rather than re-capturing the frame. Wrapping nil returns nil.
func Wrap(ctx context.Context, err error) error {
	return WrapSkip(ctx, err, 1)
}

// New is a shortcut for WrapSkip(ctx, errors.New(msg), 1).
func New(ctx context.Context, msg string) error {
	return WrapSkip(ctx, errors.New(msg), 1)
}
