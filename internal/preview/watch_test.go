package preview

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIgnoreEvent(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"content/page.md", false},
		{"assets/site.css", false},
		{"content/.page.md.swo", true}, // hidden
		{"content/page.md~", true},
		{"content/.page.md.swp", true},
		{"content/page.md.swp", true},
		{"content/page.md.swx", true},
		{"content/.#page.md", true},
		{"content/#page.md#", true},
		{"content/.DS_Store", true},
		{"assets/Thumbs.db", true},
		{"content/notes#draft.md", false}, // # only significant as prefix+suffix pair
	}
	for _, tc := range cases {
		if got := ignoreEvent(tc.path); got != tc.want {
			t.Errorf("ignoreEvent(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWatcherRequiresExistingDirs(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, 50*time.Millisecond)
	missing := filepath.Join(t.TempDir(), "missing")

	if _, err := newWatcher([]string{missing, ""}, d, discardLogger()); err == nil {
		t.Fatal("expected error when no watch dir exists")
	}
}

func TestWatcherRequestsRebuildOnChange(t *testing.T) {
	dir := t.TempDir()
	d := NewDebouncer(10*time.Millisecond, 50*time.Millisecond)

	w, err := newWatcher([]string{dir}, d, discardLogger())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.close()
	go w.run()

	if err := os.WriteFile(filepath.Join(dir, "page.md"), []byte("# hi\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case req := <-d.in:
		if req.reason != "fswatch" {
			t.Fatalf("reason = %q, want fswatch", req.reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rebuild request after file change")
	}
}

func TestWatcherIgnoresEditorArtifacts(t *testing.T) {
	dir := t.TempDir()
	d := NewDebouncer(10*time.Millisecond, 50*time.Millisecond)

	w, err := newWatcher([]string{dir}, d, discardLogger())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.close()
	go w.run()

	if err := os.WriteFile(filepath.Join(dir, ".page.md.swp"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case req := <-d.in:
		t.Fatalf("unexpected rebuild request for %+v", req)
	case <-time.After(200 * time.Millisecond):
		// ok
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	d := NewDebouncer(10*time.Millisecond, 50*time.Millisecond)

	w, err := newWatcher([]string{dir}, d, discardLogger())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.close()
	go w.run()

	sub := filepath.Join(dir, "docs")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Drain the mkdir event and give the new watch time to attach.
	select {
	case <-d.in:
	case <-time.After(2 * time.Second):
		t.Fatal("no event for new directory")
	}
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(sub, "intro.md"), []byte("# intro\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case req := <-d.in:
		if req.reason != "fswatch" {
			t.Fatalf("reason = %q", req.reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rebuild request for file in new directory")
	}
}
