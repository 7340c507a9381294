package mcfg

import (
	"os"
	"strings"

	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mctx"
	"github.com/mediocregopher/florun/merr"
)

// SourceEnv is a Source which parses configuration from the process
// environment.
//
// A Param named "addr" registered on a Component with Path
// []string{"foo","bar"} is read from the environment variable
// "FOO_BAR_ADDR".
type SourceEnv struct {
	// In the format key=value. Defaults to os.Environ() if nil.
	Env []string

	// If set, all expected Env options must be prefixed with this string
	// (uppercased, dashes replaced with underscores, like every other part
	// of the option name).
	Prefix string
}

func (env *SourceEnv) expectedName(path []string, name string) string {
	out := strings.Join(append(append([]string(nil), path...), name), "_")
	if env.Prefix != "" {
		out = env.Prefix + "_" + out
	}
	out = strings.Replace(out, "-", "_", -1)
	return strings.ToUpper(out)
}

// Parse implements the Source interface.
func (env *SourceEnv) Parse(cmp *mcmp.Component) ([]ParamValue, error) {
	kvs := env.Env
	if kvs == nil {
		kvs = os.Environ()
	}

	pM := map[string]Param{}
	for _, p := range CollectParams(cmp) {
		pM[env.expectedName(p.Component.Path(), p.Name)] = p
	}

	pvs := make([]ParamValue, 0, len(kvs))
	for _, kv := range kvs {
		split := strings.SplitN(kv, "=", 2)
		if len(split) != 2 {
			ctx := mctx.Annotate(cmp.Context(), "kv", kv)
			return nil, merr.New(ctx, "malformed environment key/value pair")
		}
		k, v := split[0], split[1]
		if p, ok := pM[k]; ok {
			pvs = append(pvs, ParamValue{
				Name:  p.Name,
				Path:  p.Component.Path(),
				Value: p.fuzzyParse(v),
			})
		}
	}

	return pvs, nil
}
