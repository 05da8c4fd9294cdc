// Package vcsstatus resolves per-file VCS status against the repository
// enclosing the indexed base path (spec §4.4). It treats the VCS library
// (go-git) as the caller-opaque black box spec.md assumes and never shells
// out to a `git` binary.
package vcsstatus

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-git/go-git/v5"

	"github.com/standardbeagle/fff/internal/fferr"
	"github.com/standardbeagle/fff/internal/fflog"
)

// Status is the per-file VCS status enum from spec §3.
type Status string

const (
	StatusClean            Status = "clean"
	StatusModified         Status = "modified"
	StatusUntracked        Status = "untracked"
	StatusStagedNew        Status = "staged_new"
	StatusStagedModified   Status = "staged_modified"
	StatusRenamed          Status = "renamed"
	StatusDeleted          Status = "deleted"
	StatusConflicted       Status = "conflicted"
	StatusIgnored          Status = "ignored"
	StatusUnknown          Status = "unknown"
)

// Cache is a readers-writer mapping of workdir-relative forward-slash
// paths to Status. Reads never block: Refresh prepares a fresh snapshot
// off to the side and atomically publishes it, so a query in flight during
// a refresh observes the previous snapshot, per spec §4.4's edge-case
// policy.
type Cache struct {
	mu         sync.Mutex // serialises Refresh calls only
	snapshot   atomic.Pointer[map[string]Status]
	repo       *git.Repository
	worktree   *git.Worktree
	workdirAbs string
	log        *fflog.Logger
}

// Open discovers the repository enclosing basePath, resolving symlinks to
// the VCS metadata directory as required by spec §4.4. If no repository is
// found, a Cache is still returned: StatusFor always answers `unknown`.
func Open(basePath string, log *fflog.Logger) (*Cache, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		absBase = basePath
	}
	absBase, err = filepath.EvalSymlinks(absBase)
	if err != nil {
		absBase = basePath
	}

	c := &Cache{log: log}
	empty := map[string]Status{}
	c.snapshot.Store(&empty)

	repo, err := git.PlainOpenWithOptions(absBase, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		log.Info("vcsstatus: no repository found", "base_path", basePath, "error", err)
		return c, nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		log.Warn("vcsstatus: repository has no worktree", "error", err)
		return c, nil
	}

	workdirAbs, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		workdirAbs = wt.Filesystem.Root()
	}

	c.repo = repo
	c.worktree = wt
	c.workdirAbs = workdirAbs
	return c, nil
}

// HasRepository reports whether a VCS repository was found.
func (c *Cache) HasRepository() bool {
	return c.worktree != nil
}

// Refresh requests a full status list and republishes the snapshot. It
// returns the number of non-clean paths in the new snapshot. Safe to call
// concurrently with StatusFor; concurrent Refresh calls are serialised.
func (c *Cache) Refresh() (int, error) {
	if c.worktree == nil {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.worktree.Status()
	if err != nil {
		c.log.Warn("vcsstatus: refresh failed, keeping previous snapshot", "error", err)
		return 0, fferr.Wrap(fferr.Internal, "vcsstatus: status refresh", err)
	}

	next := make(map[string]Status, len(st))
	nonClean := 0
	for path, fs := range st {
		rel := filepath.ToSlash(path)
		s := mapStatus(fs)
		next[rel] = s
		if s != StatusClean {
			nonClean++
		}
	}
	c.snapshot.Store(&next)
	return nonClean, nil
}

// StatusFor returns the cached status for a file given its absolute path.
// No repository present, or a path that resolves outside the workdir
// entirely (e.g. the index's base path is a parent or sibling of the VCS
// workdir), returns StatusUnknown — distinct from a path that is inside the
// workdir but absent from the status snapshot (never touched), which
// returns StatusClean.
func (c *Cache) StatusFor(absPath string) Status {
	if c.worktree == nil {
		return StatusUnknown
	}
	rel, err := filepath.Rel(c.workdirAbs, absPath)
	if err != nil {
		return StatusUnknown
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return StatusUnknown
	}

	snap := c.snapshot.Load()
	if snap == nil {
		return StatusUnknown
	}
	if s, ok := (*snap)[rel]; ok {
		return s
	}
	return StatusClean
}

// IsInsideVCSDir reports whether absPath lies inside the repository's
// `.git` metadata directory. The File Index watcher makes the same check on
// workdir-relative paths itself and does not call this method.
func (c *Cache) IsInsideVCSDir(absPath string) bool {
	if c.worktree == nil {
		return false
	}
	rel, err := filepath.Rel(c.workdirAbs, absPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == ".git" || strings.HasPrefix(rel, ".git/")
}

func mapStatus(fs *git.FileStatus) Status {
	switch {
	case fs.Staging == git.UpdatedButUnmerged || fs.Worktree == git.UpdatedButUnmerged:
		return StatusConflicted
	case fs.Staging == git.Renamed:
		return StatusRenamed
	case fs.Staging == git.Added:
		return StatusStagedNew
	case fs.Staging == git.Modified:
		return StatusStagedModified
	case fs.Staging == git.Deleted || fs.Worktree == git.Deleted:
		return StatusDeleted
	case fs.Worktree == git.Untracked:
		return StatusUntracked
	case fs.Worktree == git.Modified:
		return StatusModified
	default:
		return StatusClean
	}
}
