package fdebug

import (
	"net/http"

	"github.com/mediocregopher/florun/fhost"
	"github.com/mediocregopher/florun/jstream"
)

// updatesHandler serves GET /updates/{path}: an NDJSON stream of
// fhost.Update events, each written as one jstream JSONValue element (one
// json.Encoder.Encode call per event, which itself terminates each line
// with "\n" -- ordinary NDJSON), flushed as soon as it's available.
//
// The {path} segment is accepted for symmetry with /namespace/{path} but
// doesn't filter anything: fhost.Notebook.Updates reports every namespace
// in the tree without attributing an Update to its owning namespace (see
// its doc comment), so there's nothing here to scope by path yet.
func updatesHandler(root *fhost.Notebook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ur, err := root.Updates()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		sw := jstream.NewStreamWriter(w)

		ctx := r.Context()
		for {
			u, ok, err := ur.Next(ctx)
			if err != nil || !ok {
				return
			}
			if err := sw.EncodeValue(u); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
