package preview

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.home.luguber.info/inful/mdxsite/internal/config"
	"git.home.luguber.info/inful/mdxsite/internal/site"
)

func writePreviewFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// testServer seeds a built output tree directly, bypassing the builder,
// so handler behavior can be probed without running a build.
func testServer(t *testing.T, mutate func(*config.PreviewConfig)) *Server {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Version: "1.0",
		Site:    config.SiteConfig{Title: "Test Site"},
		Content: config.ContentConfig{
			Dir:          "content",
			AssetsDir:    "assets",
			TemplatesDir: "templates",
			Extensions:   []string{".md"},
		},
		Output:  config.OutputConfig{Dir: "public"},
		Preview: &config.PreviewConfig{Addr: "127.0.0.1:0"},
	}
	if mutate != nil {
		mutate(cfg.Preview)
	}

	writePreviewFile(t, filepath.Join(root, "public", "index.html"),
		"<html><body><h1>Home</h1></body></html>")
	writePreviewFile(t, filepath.Join(root, "public", "assets", "site.css"),
		"body { margin: 0 }")

	builder := site.NewBuilder(root, cfg)
	s := New(cfg, builder)
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(s.hub.Shutdown)
	return s
}

func TestHandlerServesSiteWithReloadScript(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "<h1>Home</h1>") {
		t.Fatalf("page content missing:\n%s", body)
	}
	if !strings.Contains(string(body), injectTag) {
		t.Fatalf("reload script not injected:\n%s", body)
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "no-cache") {
		t.Fatalf("Cache-Control = %q, want no-cache", cc)
	}
}

func TestHandlerLeavesAssetsUntouched(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/assets/site.css")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if string(body) != "body { margin: 0 }" {
		t.Fatalf("asset body modified: %q", body)
	}
}

func TestHandlerServesReloadScript(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/livereload.js")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(string(body), "EventSource") {
		t.Fatal("reload script body missing EventSource client")
	}
}

func TestHandlerLiveReloadDisabled(t *testing.T) {
	s := testServer(t, func(pc *config.PreviewConfig) {
		off := false
		pc.LiveReload = &off
	})
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), injectTag) {
		t.Fatal("script injected with livereload disabled")
	}

	resp2, err := http.Get(ts.URL + "/livereload.js")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp2.Body.Close() }()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("livereload.js status = %d, want 404", resp2.StatusCode)
	}
}

func TestHandlerHealthz(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// No build has run yet.
	if health.Status != HealthStatusDegraded {
		t.Fatalf("health = %s, want degraded before first build", health.Status)
	}
	if health.Builds != 0 || health.LastBuild != nil {
		t.Fatalf("unexpected build state: %+v", health)
	}
}

func TestHandlerHealthzUnhealthyAfterFailedBuild(t *testing.T) {
	s := testServer(t, nil)
	s.status.record(nil, errors.New("render exploded"))

	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != HealthStatusUnhealthy {
		t.Fatalf("health = %s, want unhealthy", health.Status)
	}
	if !strings.Contains(health.LastError, "render exploded") {
		t.Fatalf("last error = %q", health.LastError)
	}
}

func TestHandlerRebuildQueuesTrigger(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/rebuild?full", "", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	select {
	case req := <-s.debounce.in:
		if req.reason != "manual" || !req.full {
			t.Fatalf("queued request = %+v", req)
		}
	case <-time.After(time.Second):
		t.Fatal("no rebuild request queued")
	}
}

func TestHandlerRebuildRejectsGet(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/rebuild")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestHandlerMetricsEndpoint(t *testing.T) {
	s := testServer(t, func(pc *config.PreviewConfig) { pc.Metrics = true })
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "mdxsite_livereload_clients") {
		t.Fatalf("metrics exposition missing gauge:\n%s", body)
	}
}

func TestHandlerMetricsDisabledByDefault(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	// Falls through to the file server, which has no such file.
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
