package mcfg

import (
	"encoding/json"

	"github.com/mediocregopher/florun/mcmp"
)

// ParamValue describes a value for a Param which has been parsed by a
// Source.
type ParamValue struct {
	Name  string
	Path  []string // nil if root
	Value json.RawMessage
}

// Source parses ParamValues out of a particular configuration source (the
// CLI, the environment, ...). The returned []ParamValue may contain
// duplicates of the same Param's value; the last one wins.
type Source interface {
	Parse(cmp *mcmp.Component) ([]ParamValue, error)
}

// ParamValues is a Source which returns a fixed, pre-parsed slice of
// ParamValues. Useful in tests, and as the zero Source when no external
// configuration is being supplied.
type ParamValues []ParamValue

// Parse implements the Source interface.
func (pvs ParamValues) Parse(*mcmp.Component) ([]ParamValue, error) {
	return pvs, nil
}

// Sources is a Source which applies every given Source in order, later
// ones overriding earlier ones for any given Param.
type Sources []Source

// Parse implements the Source interface.
func (srcs Sources) Parse(cmp *mcmp.Component) ([]ParamValue, error) {
	var all []ParamValue
	for _, src := range srcs {
		pvs, err := src.Parse(cmp)
		if err != nil {
			return nil, err
		}
		all = append(all, pvs...)
	}
	return all, nil
}
