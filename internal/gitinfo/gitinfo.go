// Package gitinfo derives page metadata from the git history of the content
// directory. Pages without an authored date fall back to the time of the last
// commit touching their source file, and build reports carry the current HEAD
// revision. Sites that are not git repositories degrade to file modification
// times.
package gitinfo

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
)

// FileInfo describes the last commit that touched a file.
type FileInfo struct {
	CommitHash  string // full commit hash
	ShortHash   string // first 8 characters
	AuthorName  string
	CommittedAt time.Time
}

// Resolver answers per-file history questions against one repository.
// A nil Resolver is valid and reports no information, so callers can wire
// it unconditionally and let non-git sites fall through to mtimes.
type Resolver struct {
	repo     *gogit.Repository
	repoRoot string
	log      *slog.Logger

	mu    sync.Mutex
	cache map[string]*FileInfo
}

// Open locates the repository containing dir (searching parent directories
// for .git) and returns a Resolver for it. Returns nil without error when
// dir is not inside a git repository.
func Open(dir string, log *slog.Logger) (*Resolver, error) {
	if log == nil {
		log = slog.Default()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		log.Debug("no git repository found, page dates fall back to mtimes", "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}

	return &Resolver{
		repo:     repo,
		repoRoot: wt.Filesystem.Root(),
		log:      log,
		cache:    map[string]*FileInfo{},
	}, nil
}

// Head returns the short hash of the current HEAD commit.
func (r *Resolver) Head() (string, error) {
	if r == nil {
		return "", errors.New("not a git repository")
	}
	ref, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	return shortHash(ref.Hash().String()), nil
}

// Lookup returns the last commit that touched the file at path (absolute or
// relative to the working directory). The boolean is false when the file has
// no committed history, including when the resolver is nil.
func (r *Resolver) Lookup(path string) (*FileInfo, bool) {
	if r == nil {
		return nil, false
	}

	rel, err := r.relPath(path)
	if err != nil {
		return nil, false
	}

	r.mu.Lock()
	if info, ok := r.cache[rel]; ok {
		r.mu.Unlock()
		return info, info != nil
	}
	r.mu.Unlock()

	info := r.lookupCommit(rel)

	r.mu.Lock()
	r.cache[rel] = info
	r.mu.Unlock()

	return info, info != nil
}

// ModTime returns the committed-at time for path, falling back to the file's
// modification time, and the zero time when neither is available.
func (r *Resolver) ModTime(path string) time.Time {
	if info, ok := r.Lookup(path); ok {
		return info.CommittedAt
	}
	if fi, err := os.Stat(path); err == nil {
		return fi.ModTime()
	}
	return time.Time{}
}

func (r *Resolver) relPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.repoRoot, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (r *Resolver) lookupCommit(rel string) *FileInfo {
	iter, err := r.repo.Log(&gogit.LogOptions{
		FileName: &rel,
		Order:    gogit.LogOrderCommitterTime,
	})
	if err != nil {
		r.log.Debug("git log failed", "path", rel, "error", err)
		return nil
	}
	defer iter.Close()

	c, err := iter.Next()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			r.log.Debug("git log iteration failed", "path", rel, "error", err)
		}
		return nil
	}

	return &FileInfo{
		CommitHash:  c.Hash.String(),
		ShortHash:   shortHash(c.Hash.String()),
		AuthorName:  c.Author.Name,
		CommittedAt: c.Committer.When,
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
