// Package fdebug implements an HTTP introspection surface over a
// fhost.Host: a JSON snapshot of any namespace's defined symbols, and an
// NDJSON feed of the host-wide Update log. It offers no edit operations,
// but GET /namespace/{path} creates any namespace along path that doesn't
// exist yet (see resolveNamespace). It is built directly on mhttp
// for listener/server wiring, matching every other HTTP-serving component
// in this module.
package fdebug

import (
	"net/http"

	"github.com/mediocregopher/florun/fhost"
	"github.com/mediocregopher/florun/mcmp"
	"github.com/mediocregopher/florun/mhttp"
)

// Server wraps the mhttp.Server this package serves on.
type Server struct {
	*mhttp.Server
}

// InstServer registers config for the debug HTTP server (delegating
// straight to mhttp.InstServer), to be actually opened by Serve once
// mcfg.Populate has run.
func InstServer(cmp *mcmp.Component) (*mcmp.Component, *string) {
	return mhttp.InstServer(cmp)
}

// Serve opens the listener registered via InstServer and starts serving
// root's introspection endpoints on it. Must be called after mcfg.Populate.
func Serve(netCmp *mcmp.Component, addr string, root *fhost.Notebook) (*Server, error) {
	tokens := newTokenCache()

	mux := http.NewServeMux()
	mux.HandleFunc("/namespace/", namespaceHandler(root, tokens))
	mux.HandleFunc("/updates/", updatesHandler(root))

	srv, err := mhttp.Serve(netCmp, addr, mux)
	if err != nil {
		return nil, err
	}
	return &Server{Server: srv}, nil
}
