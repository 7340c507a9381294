package mtest

import (
	"testing"

	"github.com/mediocregopher/florun/mcfg"
	"github.com/mediocregopher/florun/mcmp"
)

type envOverridesKey struct{}

// Component returns a fresh root Component, suitable for a self-contained
// test: Params registered on it (or its children) are populated from
// whatever overrides Env sets, once Run is called.
func Component() *mcmp.Component {
	return new(mcmp.Component)
}

// Env records a key=value environment override for cmp, used by Run instead
// of the real process environment. Lets a test drive a Component's Params
// without touching os.Environ.
func Env(cmp *mcmp.Component, key, val string) {
	overrides, _ := cmp.Value(envOverridesKey{}).([]string)
	cmp.SetValue(envOverridesKey{}, append(overrides, key+"="+val))
}

// Run populates cmp's Params from whatever overrides were set via Env, then
// calls fn. Fails the test immediately if population errors (e.g. a
// required Param with no override).
func Run(cmp *mcmp.Component, t *testing.T, fn func()) {
	t.Helper()
	overrides, _ := cmp.Value(envOverridesKey{}).([]string)
	if err := mcfg.Populate(cmp, &mcfg.SourceEnv{Env: overrides}); err != nil {
		t.Fatalf("populating config: %v", err)
	}
	fn()
}
