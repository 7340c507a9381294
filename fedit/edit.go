// Package fedit implements the edit protocol: a small set of mutation
// records applied to a root namespace, and an EditApplier that multiplexes
// many incoming edit streams onto it while preserving each stream's
// internal order.
package fedit

import (
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
)

// Edit is a single mutation to apply to a namespace. Exactly one field
// group is meaningful per Kind; see the Kind constants.
type Edit struct {
	Kind Kind

	Sym fsym.Symbol // Undefine, SetInputType, SetStreamingScript, SetComputingScript, WithNamespace

	InputType fstream.TypeTag // SetInputType
	Text      string          // SetStreamingScript, SetComputingScript
	RunIo     bool            // SetRunIo
	Inner     []Edit          // WithNamespace
}

// Kind identifies which mutation an Edit performs.
type Kind int

const (
	Clear Kind = iota
	Undefine
	SetInputType
	SetStreamingScript
	SetComputingScript
	SetRunIo
	WithNamespace
)

func (k Kind) String() string {
	switch k {
	case Clear:
		return "Clear"
	case Undefine:
		return "Undefine"
	case SetInputType:
		return "SetInputType"
	case SetStreamingScript:
		return "SetStreamingScript"
	case SetComputingScript:
		return "SetComputingScript"
	case SetRunIo:
		return "SetRunIo"
	case WithNamespace:
		return "WithNamespace"
	default:
		return "Unknown"
	}
}
