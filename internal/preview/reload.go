package preview

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/mdxsite/internal/metrics"
)

// ReloadHub fans build tokens out to connected browsers over SSE.
// Clients reload when the token changes; the token is the build ID of
// the rebuild that produced new output.
type ReloadHub struct {
	mu        sync.Mutex
	nextID    int
	clients   map[int]*reloadClient
	recorder  metrics.Recorder
	closed    bool
	lastToken string
}

type reloadClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

func NewReloadHub(rec metrics.Recorder) *ReloadHub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &ReloadHub{clients: make(map[int]*reloadClient), recorder: rec}
}

// ServeHTTP implements the SSE endpoint. The connection stays open until
// the client disconnects or the hub shuts down.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
		return
	}
	client := &reloadClient{
		id:   h.nextID,
		ch:   make(chan string, 8),
		done: make(chan struct{}),
	}
	h.nextID++
	h.clients[client.id] = client
	current := h.lastToken
	h.recorder.SetLivereloadClients(len(h.clients))
	h.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.removeClient(client.id)
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		h.removeClient(client.id)
		return
	}
	if current != "" {
		if _, err := bw.WriteString("data: {\"token\":\"" + current + "\"}\n\n"); err != nil {
			h.removeClient(client.id)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				h.removeClient(client.id)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		case token := <-client.ch:
			if _, err := bw.WriteString("data: {\"token\":\"" + token + "\"}\n\n"); err != nil {
				h.removeClient(client.id)
				return
			}
			_ = bw.Flush()
			flusher.Flush()
		}
	}
}

func (h *ReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
		h.recorder.SetLivereloadClients(len(h.clients))
	}
}

// Broadcast pushes a new token to every connected client. Repeating the
// current token is a no-op, and clients too slow to keep up are dropped.
func (h *ReloadHub) Broadcast(token string) {
	h.mu.Lock()
	if h.closed || token == "" || token == h.lastToken {
		h.mu.Unlock()
		return
	}
	h.lastToken = token
	snapshot := make([]*reloadClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- token:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("live reload broadcast",
		slog.String("token", token),
		slog.Int("clients", len(snapshot)),
		slog.Int("dropped", dropped))
}

// ClientCount returns the number of connected clients.
func (h *ReloadHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects every client and rejects new connections.
func (h *ReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[int]*reloadClient)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetLivereloadClients(0)
}

// reloadScript is served at /livereload.js and injected into preview
// pages. It reloads the page whenever the server announces a new token.
const reloadScript = `(() => {
  if (window.__MDXSITE_RELOAD__) return;
  window.__MDXSITE_RELOAD__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (!p.token) return;
        if (current === null) { current = p.token; return; }
        if (p.token !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
