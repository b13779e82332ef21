package site

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdxsite/internal/logfields"
)

// assetsPrefix is the output subdirectory static assets are copied into, so
// generated pages can reference them under /assets/.
const assetsPrefix = "assets"

// copyAssets mirrors the assets directory into root/assets. A missing assets
// directory is not an error; sites without static files are fine. Returns the
// number of files copied and total bytes.
func (b *Builder) copyAssets(root string) (int, int64, error) {
	if b.assetsDir == "" {
		return 0, 0, nil
	}
	if fi, err := os.Stat(b.assetsDir); err != nil || !fi.IsDir() {
		b.log.Debug("No assets directory, skipping copy", logfields.Path(b.assetsDir))
		return 0, 0, nil
	}

	var (
		count int
		bytes int64
	)
	err := filepath.WalkDir(b.assetsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != b.assetsDir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.assetsDir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		dst := filepath.Join(root, assetsPrefix, rel)
		n, err := copyFileAtomic(dst, path)
		if err != nil {
			return fmt.Errorf("copy asset %s: %w", rel, err)
		}
		count++
		bytes += n
		return nil
	})
	if err != nil {
		return count, bytes, fmt.Errorf("walk assets directory: %w", err)
	}

	if count > 0 {
		b.log.Info("Copied static assets", "files", count)
	}
	return count, bytes, nil
}
