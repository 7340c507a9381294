package merr

import (
	"fmt"
	"runtime"
)

// Frame identifies a single call-stack location, used to pin down where an
// Error was first created.
type Frame struct {
	File     string
	Line     int
	Function string
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d (%s)", f.File, f.Line, f.Function)
}

func captureFrame(skip int) Frame {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Frame{}
	}
	fn := runtime.FuncForPC(pc)
	name := "unknown"
	if fn != nil {
		name = fn.Name()
	}
	return Frame{File: file, Line: line, Function: name}
}
