package fdebug

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/mediocregopher/florun/feval"
	"github.com/mediocregopher/florun/fedit"
	"github.com/mediocregopher/florun/fhost"
	"github.com/mediocregopher/florun/fns"
	"github.com/mediocregopher/florun/fstream"
	"github.com/mediocregopher/florun/fsym"
	"github.com/mediocregopher/florun/mtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceHandler(t *testing.T) {
	cmp := mtest.Component()
	netCmp, addr := InstServer(cmp)

	reg := fns.NewInputFactoryRegistry()
	fns.RegisterInputFactory[float64](reg)
	h := fhost.New(cmp, feval.NewFactory(), reg)
	defer h.Close()

	nb := h.Notebook()
	x := fsym.WithName("fdebug-test-x-" + t.Name())
	ed := h.Editor()
	ch := make(chan fedit.Edit, 1)
	ch <- fedit.Edit{Kind: fedit.SetInputType, Sym: x, InputType: fstream.TagOf[float64]()}
	close(ch)
	ed.SendEdits(context.Background(), fedit.FromChannel(ch))
	require.NoError(t, ed.Wait(nil))

	mtest.Run(cmp, t, func() {
		srv, err := Serve(netCmp, *addr, nb)
		require.NoError(t, err)
		defer srv.Close()

		resp, err := http.Get("http://" + srv.Listener.Listener.Addr().String() + "/namespace/")
		require.NoError(t, err)
		defer resp.Body.Close()

		var got []symbolView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.Equal(t, "input", got[0].Kind)
		assert.True(t, strings.HasPrefix(got[0].Name, "fdebug-test-x-"))
	})
}

func TestNamespaceHandlerDescendsPath(t *testing.T) {
	cmp := mtest.Component()
	netCmp, addr := InstServer(cmp)

	reg := fns.NewInputFactoryRegistry()
	h := fhost.New(cmp, feval.NewFactory(), reg)
	defer h.Close()

	nb := h.Notebook()
	childSym := fsym.WithName("fdebug-test-child-" + t.Name())
	_, err := nb.Namespace(context.Background(), childSym)
	require.NoError(t, err)

	mtest.Run(cmp, t, func() {
		srv, err := Serve(netCmp, *addr, nb)
		require.NoError(t, err)
		defer srv.Close()

		childName, _ := childSym.Name()
		resp, err := http.Get("http://" + srv.Listener.Listener.Addr().String() + "/namespace/" + childName)
		require.NoError(t, err)
		defer resp.Body.Close()

		var got []symbolView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Empty(t, got)
	})
}

func TestNamespaceHandlerAnonymousSymbolGetsStableToken(t *testing.T) {
	cmp := mtest.Component()
	netCmp, addr := InstServer(cmp)

	reg := fns.NewInputFactoryRegistry()
	fns.RegisterInputFactory[float64](reg)
	h := fhost.New(cmp, feval.NewFactory(), reg)
	defer h.Close()

	nb := h.Notebook()
	anon := fsym.New()
	ed := h.Editor()
	ch := make(chan fedit.Edit, 1)
	ch <- fedit.Edit{Kind: fedit.SetInputType, Sym: anon, InputType: fstream.TagOf[float64]()}
	close(ch)
	ed.SendEdits(context.Background(), fedit.FromChannel(ch))
	require.NoError(t, ed.Wait(nil))

	mtest.Run(cmp, t, func() {
		srv, err := Serve(netCmp, *addr, nb)
		require.NoError(t, err)
		defer srv.Close()

		get := func() []symbolView {
			resp, err := http.Get("http://" + srv.Listener.Listener.Addr().String() + "/namespace/")
			require.NoError(t, err)
			defer resp.Body.Close()
			var got []symbolView
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			return got
		}

		first := get()
		require.Len(t, first, 1)
		assert.Empty(t, first[0].Name)
		assert.NotEmpty(t, first[0].ID)

		second := get()
		require.Len(t, second, 1)
		assert.Equal(t, first[0].ID, second[0].ID, "anonymous symbol's token must be stable across requests")
	})
}
