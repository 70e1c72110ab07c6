package main

import (
	"fmt"
	"log"
	"net/http"

	"urlfilter/bloom"
)

// filterServer answers membership queries against a filter that was loaded
// once at startup. The filter is never modified, so the handlers need no
// locking.
type filterServer struct {
	f *bloom.Filter
}

// checkHandler answers a membership query for the u parameter. A definite
// miss is reported as 404, so callers scripting against the endpoint can
// branch on the status code alone.
func (s filterServer) checkHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		code := http.StatusMethodNotAllowed
		http.Error(w, http.StatusText(code), code)
		return
	}

	item := r.URL.Query().Get("u")
	if item == "" {
		http.Error(w, "missing query parameter u", http.StatusBadRequest)
		return
	}

	if !s.f.Contains(item) {
		http.Error(w, "no", http.StatusNotFound)
		return
	}

	fmt.Fprintln(w, "maybe")
}

// statsHandler dumps the filter summary.
func (s filterServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	err := bloom.Summary(w, s.f)
	if err != nil {
		log.Printf("can't write stats: %s", err)
	}
}
