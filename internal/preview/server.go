package preview

import (
	"fmt"
	"net/http"

	"git.home.luguber.info/inful/mdxsite/internal/metrics"
)

// handler assembles the preview mux. Separate from Run so tests can
// drive it through httptest without binding a socket.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	root := noCache(http.FileServer(http.Dir(s.builder.OutputDir())))
	if s.pc.LiveReloadEnabled() {
		root = injectReloadScript(root)

		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(reloadScript))
		})
	}
	mux.Handle("/", root)

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/rebuild", s.handleRebuild)
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	return mux
}

// handleRebuild queues a manual rebuild; ?full requests a full one.
// The request is debounced like any other trigger, so the response is
// an acknowledgement rather than a build result.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.debounce.Request("manual", r.URL.Query().Has("full"))
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "rebuild queued")
}

// noCache keeps browsers from holding on to stale preview output.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		next.ServeHTTP(w, r)
	})
}
