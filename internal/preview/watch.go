package preview

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mdxsite/internal/logfields"
)

// watcher feeds filesystem events from the source directories into the
// rebuild debouncer.
type watcher struct {
	fsw      *fsnotify.Watcher
	debounce *Debouncer
	log      *slog.Logger
}

// newWatcher watches every existing directory in dirs recursively.
// Directories that do not exist yet (an optional assets dir, say) are
// skipped.
func newWatcher(dirs []string, d *Debouncer, log *slog.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	watched := 0
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			log.Debug("skipping missing watch dir", logfields.Path(dir))
			continue
		}
		if err := addDirsRecursive(fsw, dir, log); err != nil {
			_ = fsw.Close()
			return nil, err
		}
		watched++
	}
	if watched == 0 {
		_ = fsw.Close()
		return nil, fmt.Errorf("nothing to watch: none of %v exist", dirs)
	}

	return &watcher{fsw: fsw, debounce: d, log: log}, nil
}

func addDirsRecursive(fsw *fsnotify.Watcher, root string, log *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			log.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// run pumps events until the watcher is closed or the event channel
// drains out.
func (w *watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *watcher) handleEvent(ev fsnotify.Event) {
	if ignoreEvent(ev.Name) {
		return
	}
	// New directories need their own watches for events beneath them.
	if ev.Op.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			_ = addDirsRecursive(w.fsw, ev.Name, w.log)
		}
	}
	w.log.Debug("file change",
		logfields.Path(ev.Name),
		slog.String("op", ev.Op.String()))
	w.debounce.Request("fswatch", false)
}

func (w *watcher) close() {
	_ = w.fsw.Close()
}

// ignoreEvent filters editor droppings and hidden files out of the
// rebuild trigger path.
func ignoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") {
		return true
	}
	if strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
