package site

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/mdxsite/internal/logfields"
)

// beginStaging creates an isolated staging directory for atomic build output.
// The directory is a sibling of the output dir (<output>_stage), never inside
// it, so the swap is a pair of renames on the same filesystem.
func (b *Builder) beginStaging() error {
	stage := b.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("clear stale staging dir: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	b.stageDir = stage
	b.log.Debug("Initialized staging directory", "staging", stage, "final", b.outputDir)
	return nil
}

// finalizeStaging atomically promotes the staging directory to the final
// output location. Strategy:
//  1. Move the existing output dir (if any) to <output>.prev.
//  2. Rename staging -> output.
//  3. Remove the previous backup asynchronously, best effort.
func (b *Builder) finalizeStaging() error {
	if b.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(b.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	prev := b.outputDir + ".prev"
	if _, err := os.Stat(prev); err == nil {
		// A previous backup may be briefly locked; retry before escalating.
		for i := 0; i < 3; i++ {
			if err := os.RemoveAll(prev); err == nil {
				break
			}
			if i < 2 {
				time.Sleep(100 * time.Millisecond)
			}
		}
		if _, err := os.Stat(prev); err == nil {
			_ = filepath.Walk(prev, func(path string, _ os.FileInfo, err error) error {
				if err == nil {
					_ = os.Chmod(path, 0o755)
				}
				return nil
			})
			if err := os.RemoveAll(prev); err != nil {
				b.log.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
			}
		}
	}

	if _, err := os.Stat(b.outputDir); err == nil {
		if err := os.Rename(b.outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(b.stageDir, b.outputDir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	b.stageDir = ""

	go func(p string) {
		if err := os.RemoveAll(p); err != nil {
			b.log.Warn("Failed to remove previous backup", logfields.Path(p), logfields.Error(err))
		}
	}(prev)

	b.log.Info("Promoted staging directory", "output", b.outputDir)
	return nil
}

// abortStaging removes any staging directory left by a failed build so no
// orphaned temp dirs accumulate next to the output.
func (b *Builder) abortStaging() {
	if b.stageDir == "" {
		return
	}
	dir := b.stageDir
	b.stageDir = "" // prevent double cleanup
	if err := os.RemoveAll(dir); err != nil {
		b.log.Warn("Failed to remove staging directory after abort", "staging", dir, logfields.Error(err))
	} else {
		b.log.Debug("Removed staging directory after abort", "staging", dir)
	}
}
