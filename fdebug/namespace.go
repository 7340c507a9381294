package fdebug

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mediocregopher/florun/fhost"
	"github.com/mediocregopher/florun/fsym"
)

// symbolView is the JSON shape of one fns.SnapshotEntry.
type symbolView struct {
	Name string `json:"name,omitempty"`
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// resolveNamespace descends from root through one child per non-empty
// "/"-separated segment of path, naming each by fsym.WithName, matching the
// edit protocol's WithNamespace convention of addressing children by name.
// Notebook.Namespace creates missing children, so a segment naming no
// existing symbol is created as an empty child namespace.
func resolveNamespace(ctx context.Context, root *fhost.Notebook, path string) (*fhost.Notebook, error) {
	nb := root
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		child, err := nb.Namespace(ctx, fsym.WithName(seg))
		if err != nil {
			return nil, err
		}
		nb = child
	}
	return nb, nil
}

// namespaceHandler serves GET /namespace/{path}: a JSON array of the
// symbols defined directly in the namespace named by path. Named symbols
// are identified by their name; anonymous symbols (fsym.New, not
// fsym.WithName) get a stable per-server debug token from tokens instead,
// since they have nothing human-readable to show.
func namespaceHandler(root *fhost.Notebook, tokens *tokenCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/namespace/")
		nb, err := resolveNamespace(r.Context(), root, path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		entries := nb.Snapshot()
		out := make([]symbolView, len(entries))
		for i, e := range entries {
			name, ok := e.Sym.Name()
			id := name
			if !ok {
				id = tokens.tokenFor(e.Sym)
			}
			out[i] = symbolView{Name: name, ID: id, Kind: e.Kind}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}
