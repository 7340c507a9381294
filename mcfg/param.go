package mcfg

import (
	"encoding/json"
	"strings"

	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mtime"
)

// Param is a configuration parameter registered on a Component. A Param with
// Name "addr" registered on a Component whose Path is []string{"foo","bar"}
// is set-able on the CLI via "--foo-bar-addr", or via environment variable
// "FOO_BAR_ADDR".
//
// Param values are always unmarshaled as JSON into Into, regardless of which
// Source supplied the value.
type Param struct {
	Component *mcmp.Component
	Name      string
	Usage     string

	IsString bool
	IsBool   bool
	Required bool

	Into interface{}
}

func paramFullName(path []string, name string) string {
	return strings.Join(append(append([]string(nil), path...), name), "-")
}

func (p Param) fuzzyParse(v string) json.RawMessage {
	if p.IsBool {
		if v == "" || v == "0" || v == "false" {
			return json.RawMessage("false")
		}
		return json.RawMessage("true")
	} else if p.IsString && (v == "" || v[0] != '"') {
		return json.RawMessage(`"` + v + `"`)
	}
	return json.RawMessage(v)
}

type paramsKey struct{}

func getLocalParams(cmp *mcmp.Component) []Param {
	ps, _ := cmp.Value(paramsKey{}).([]Param)
	return ps
}

func addParam(cmp *mcmp.Component, p Param) {
	p.Component = cmp
	p.Name = strings.ToLower(p.Name)
	cmp.SetValue(paramsKey{}, append(getLocalParams(cmp), p))
}

// ParamOption customizes a Param being registered by one of this package's
// typed constructors (String, Int, Bool, ...).
type ParamOption func(*Param)

// ParamUsage sets a Param's help-page description.
func ParamUsage(usage string) ParamOption {
	return func(p *Param) { p.Usage = usage }
}

// ParamRequired marks a Param as required: Populate fails if no Source
// supplies a value for it.
func ParamRequired() ParamOption {
	return func(p *Param) { p.Required = true }
}

// ParamDefault sets a Param's default value, used when no Source supplies
// one. The type of defaultVal must match the type of the typed constructor
// this option is passed to (e.g. a string for String, an int for Int).
func ParamDefault(defaultVal interface{}) ParamOption {
	return func(p *Param) {
		b, err := json.Marshal(defaultVal)
		if err != nil {
			panic(err)
		}
		if err := json.Unmarshal(b, p.Into); err != nil {
			panic(err)
		}
	}
}

func applyOpts(p Param, opts []ParamOption) Param {
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Int64 returns an *int64 which will be populated once Populate is run.
func Int64(cmp *mcmp.Component, name string, opts ...ParamOption) *int64 {
	i := new(int64)
	p := applyOpts(Param{Name: name, Into: i}, opts)
	addParam(cmp, p)
	return i
}

// Int returns an *int which will be populated once Populate is run.
func Int(cmp *mcmp.Component, name string, opts ...ParamOption) *int {
	i := new(int)
	p := applyOpts(Param{Name: name, Into: i}, opts)
	addParam(cmp, p)
	return i
}

// String returns a *string which will be populated once Populate is run.
func String(cmp *mcmp.Component, name string, opts ...ParamOption) *string {
	s := new(string)
	p := applyOpts(Param{Name: name, IsString: true, Into: s}, opts)
	addParam(cmp, p)
	return s
}

// Bool returns a *bool which will be populated once Populate is run, and
// which defaults to false if unconfigured.
//
// A boolean parameter is set to true unless its value is "", "0", or
// "false". On the CLI a boolean flag given with no value at all is also
// taken to mean true.
func Bool(cmp *mcmp.Component, name string, opts ...ParamOption) *bool {
	b := new(bool)
	p := applyOpts(Param{Name: name, IsBool: true, Into: b}, opts)
	addParam(cmp, p)
	return b
}

// TS returns an *mtime.TS which will be populated once Populate is run.
func TS(cmp *mcmp.Component, name string, opts ...ParamOption) *mtime.TS {
	t := new(mtime.TS)
	p := applyOpts(Param{Name: name, Into: t}, opts)
	addParam(cmp, p)
	return t
}

// Duration returns an *mtime.Duration which will be populated once Populate
// is run.
func Duration(cmp *mcmp.Component, name string, opts ...ParamOption) *mtime.Duration {
	d := new(mtime.Duration)
	p := applyOpts(Param{Name: name, IsString: true, Into: d}, opts)
	addParam(cmp, p)
	return d
}

// JSON reads the parameter value as a JSON value and unmarshals it into
// into (which must be a pointer). into's pointed-to value, if non-zero, is
// also used as the default.
func JSON(cmp *mcmp.Component, name string, into interface{}, opts ...ParamOption) {
	p := applyOpts(Param{Name: name, Into: into}, opts)
	addParam(cmp, p)
}
