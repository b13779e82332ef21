package site

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdxsite/internal/logfields"
)

// PageFile is one discovered content source file.
type PageFile struct {
	AbsPath string // absolute path on disk
	RelPath string // slash-separated path relative to the content dir
}

// discoverContent walks the content directory and returns every file whose
// extension is in the configured allow list. Hidden files and directories
// (dot-prefixed) are skipped. Results follow the walk's lexical order, so
// discovery is deterministic.
func (b *Builder) discoverContent() ([]PageFile, error) {
	if fi, err := os.Stat(b.contentDir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("content directory %s does not exist", b.contentDir)
	}

	allowed := make(map[string]struct{}, len(b.cfg.Content.Extensions))
	for _, ext := range b.cfg.Content.Extensions {
		allowed[ext] = struct{}{}
	}

	var files []PageFile
	err := filepath.WalkDir(b.contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// Skip hidden files and directories
		if strings.HasPrefix(d.Name(), ".") && path != b.contentDir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := allowed[ext]; !ok {
			return nil
		}
		rel, err := filepath.Rel(b.contentDir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		pf := PageFile{AbsPath: path, RelPath: filepath.ToSlash(rel)}
		files = append(files, pf)
		b.log.Debug("Discovered content file", logfields.Page(pf.RelPath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content directory: %w", err)
	}

	b.log.Info("Content discovery completed", "files", len(files), logfields.Path(b.contentDir))
	return files, nil
}
