// Package site serves the embedded browser front end for the API.
package site

import (
	"context"
	"net/http"
)

// Prefix is the path the front end is served under.
const Prefix = "/app/"

// Register attaches the front end routes to mux. The bare root redirects to
// the front end.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle(Prefix, http.StripPrefix(Prefix, http.FileServer(FS())))
	mux.Handle("/{$}", http.RedirectHandler(Prefix, http.StatusFound))
}
