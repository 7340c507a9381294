package mlog

import (
	"github.com/mediocregopher/florun/mcmp"
)

type cmpKey int

const (
	cmpKeyLogger cmpKey = iota
	cmpKeyFromLogger
)

// SetLogger attaches l to cmp, to be retrieved by later calls to From on cmp
// or any of its descendants.
func SetLogger(cmp *mcmp.Component, l *Logger) {
	cmp.SetValue(cmpKeyLogger, l)

	var reset func(*mcmp.Component)
	reset = func(cmp *mcmp.Component) {
		cmp.SetValue(cmpKeyFromLogger, nil)
		for _, child := range cmp.Children() {
			reset(child)
		}
	}
	reset(cmp)
}

// DefaultLogger is returned by From when no Logger has been set on the
// Component or any of its ancestors.
var DefaultLogger = NewLogger(nil)

func getLogger(cmp *mcmp.Component) *Logger {
	if l, ok := cmp.InheritedValue(cmpKeyLogger); ok {
		return l.(*Logger)
	}
	return DefaultLogger
}

// From returns a Logger for cmp which automatically annotates every Message
// with cmp's Context (in particular its path), in addition to whatever
// Logger was set with SetLogger on cmp or an ancestor.
func From(cmp *mcmp.Component) *Logger {
	if l, _ := cmp.Value(cmpKeyFromLogger).(*Logger); l != nil {
		return l
	}

	l := getLogger(cmp).Clone()
	base := l.Handler()
	l.SetHandler(func(msg Message) error {
		msg.Contexts = append(msg.Contexts, cmp.Context())
		return base(msg)
	})
	cmp.SetValue(cmpKeyFromLogger, l)
	return l
}
