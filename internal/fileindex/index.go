// Package fileindex implements the File Index & Watcher subsystem
// (spec §4.5): a continuously refreshed in-memory catalogue of eligible
// files under a base path, a filesystem watcher applying debounced deltas,
// and a bounded mmap cache for grep.
package fileindex

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/standardbeagle/fff/internal/ffconfig"
	"github.com/standardbeagle/fff/internal/fferr"
	"github.com/standardbeagle/fff/internal/fflog"
)

// Options configures a FileIndex at construction and across restarts.
type Options struct {
	BasePath        string
	MaxThreads      int
	MaxFileSize     int64
	AllowHiddenDirs bool
	ExtraIgnore     []string
	ExtraInclude    []string
	WarmupMMAPCache bool
	DisableWatcher  bool
}

// Index owns the live file table, the background scanner, the filesystem
// watcher, and the mmap cache. The scanner and the watcher are its only
// writers; every other access is a reader against an atomically published
// snapshot (spec §5's readers-writer discipline, swap-on-completion
// pattern).
type Index struct {
	opts Options
	log  *fflog.Logger

	mu      sync.Mutex // serialises ScanFiles/RestartIndex against each other
	current atomic.Pointer[table]

	generation   atomic.Uint64
	state        atomic.Value // ScanState
	scannedCount atomic.Int64
	scanErr      atomic.Pointer[string]

	scanDone chan struct{} // closed when the in-flight scan completes
	cancel   context.CancelFunc

	watcher *watcher
	mmap    *mmapCache

	onVCSDirEvent func() // invoked by the watcher for VCS-metadata-dir events

	closed atomic.Bool
}

// New builds an Index and kicks off the initial scan in the background.
// Per spec §4.8, this never blocks the caller.
func New(opts Options, log *fflog.Logger) (*Index, error) {
	if opts.BasePath == "" {
		return nil, fferr.New(fferr.InvalidArgument, "fileindex: base_path is empty")
	}
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = ffconfig.DefaultMaxFileSize
	}

	idx := &Index{opts: opts, log: log, mmap: newMMAPCache(4096)}
	idx.current.Store(newTable())
	idx.state.Store(ScanIdle)
	idx.scanDone = make(chan struct{})
	close(idx.scanDone)

	if !opts.DisableWatcher {
		w, err := newWatcher(idx, log)
		if err != nil {
			log.Warn("fileindex: watcher unavailable", "error", err)
		} else {
			idx.watcher = w
		}
	}

	idx.ScanFiles()
	return idx, nil
}

// ScanFiles requests a fresh scan; non-blocking.
func (idx *Index) ScanFiles() {
	idx.startScan(idx.opts.BasePath)
}

func (idx *Index) startScan(basePath string) {
	idx.mu.Lock()
	if idx.state.Load() == ScanScanning {
		idx.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	idx.cancel = cancel
	idx.state.Store(ScanScanning)
	idx.scannedCount.Store(0)
	idx.scanErr.Store(nil)
	done := make(chan struct{})
	idx.scanDone = done
	idx.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				ferr := fferr.Recover(r)
				msg := ferr.Error()
				idx.scanErr.Store(&msg)
				idx.state.Store(ScanIdle)
			}
		}()

		res := scanTree(ctx, ScannerOptions{
			BasePath:        basePath,
			MaxThreads:      idx.opts.MaxThreads,
			MaxFileSize:     idx.opts.MaxFileSize,
			AllowHiddenDirs: idx.opts.AllowHiddenDirs,
			ExtraIgnore:     idx.opts.ExtraIgnore,
			ExtraInclude:    idx.opts.ExtraInclude,
		})

		if res.err != nil {
			msg := res.err.Error()
			idx.scanErr.Store(&msg)
			idx.log.Warn("fileindex: scan failed", "error", res.err)
			idx.state.Store(ScanIdle)
			return
		}

		idx.current.Store(res.table)
		idx.generation.Add(1)
		idx.scannedCount.Store(res.scannedCount)
		idx.state.Store(ScanIdle)

		if idx.opts.WarmupMMAPCache {
			idx.warmupMMAP(ctx, res.table)
		}

		if idx.watcher != nil {
			idx.watcher.resync(basePath)
		}
	}()
}

func (idx *Index) warmupMMAP(ctx context.Context, t *table) {
	for _, e := range t.entries {
		if ctx.Err() != nil {
			return
		}
		if e.IsBinary || e.IsLarge {
			continue
		}
		if _, _, err := idx.mmap.Get(e.ID, e.AbsolutePath); err != nil {
			idx.log.Warn("fileindex: mmap warmup failed", "path", e.AbsolutePath, "error", err)
		}
	}
}

// IsScanning reports whether a scan or restart is currently in flight.
func (idx *Index) IsScanning() bool {
	s := idx.state.Load()
	return s == ScanScanning || s == ScanRestarting
}

// ScanProgress returns the running count of entries processed so far in
// the current (or most recently completed) scan, whether a scan is active,
// and any error that caused the scan to stop without progress.
func (idx *Index) ScanProgress() (scannedCount int64, isScanning bool, scanError string) {
	if p := idx.scanErr.Load(); p != nil {
		scanError = *p
	}
	return idx.scannedCount.Load(), idx.IsScanning(), scanError
}

// WaitForScan blocks up to timeout for the in-flight scan to complete,
// returning true if it did.
func (idx *Index) WaitForScan(timeout time.Duration) bool {
	idx.mu.Lock()
	done := idx.scanDone
	idx.mu.Unlock()

	if timeout <= 0 {
		<-done
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// RestartIndex cancels any current scan/warmup, swaps the base path, and
// starts a fresh scan.
func (idx *Index) RestartIndex(newBasePath string) {
	idx.mu.Lock()
	if idx.cancel != nil {
		idx.cancel()
	}
	idx.opts.BasePath = newBasePath
	idx.state.Store(ScanRestarting)
	idx.mu.Unlock()

	idx.startScan(newBasePath)
}

// Generation returns the monotonic counter bumped on every structural
// change (full rescan or applied watcher delta).
func (idx *Index) Generation() uint64 {
	return idx.generation.Load()
}

// BasePath returns the currently configured root.
func (idx *Index) BasePath() string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.opts.BasePath
}

// Snapshot returns a stable-order copy of every indexed entry as of the
// most recently published table. Safe for concurrent use with ongoing
// scans/watcher deltas: it never observes a half-applied mutation.
func (idx *Index) Snapshot() []FileEntry {
	t := idx.current.Load()
	out := make([]FileEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup returns the entry for a relative path, if indexed.
func (idx *Index) Lookup(relPath string) (FileEntry, bool) {
	return idx.current.Load().get(relPath)
}

// MMAP exposes the bounded mmap cache to the grep engine.
func (idx *Index) MMAP() *mmapCache {
	return idx.mmap
}

// OnVCSDirEvent registers a callback invoked whenever the watcher observes
// an event inside the repository's metadata directory, used by the Facade
// to drive the VCS status cache's debounced refresh.
func (idx *Index) OnVCSDirEvent(fn func()) {
	idx.onVCSDirEvent = fn
}

// Close cancels all background activity: the watcher, any in-flight scan,
// and releases the mmap cache. Per spec §5, it must return only once
// background activity has actually stopped.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return nil
	}

	idx.mu.Lock()
	if idx.cancel != nil {
		idx.cancel()
	}
	idx.mu.Unlock()

	idx.WaitForScan(0)

	if idx.watcher != nil {
		idx.watcher.stop()
	}
	idx.mmap.Close()
	return nil
}

// applyDelta is invoked by the watcher with a coalesced batch of path
// events; it rebuilds the affected entries and bumps the generation
// exactly once per batch.
func (idx *Index) applyDelta(creates, changes, removes []string) {
	old := idx.current.Load()
	next := old.clone()

	for _, relPath := range removes {
		if e, ok := next.get(relPath); ok {
			idx.mmap.Invalidate(e.ID)
		}
		next.remove(relPath)
	}
	for _, relPath := range changes {
		absPath := idx.absPath(relPath)
		if e, ok := buildEntry(absPath, relPath, idx.opts.MaxFileSize); ok {
			if old, ok := next.get(relPath); ok {
				idx.mmap.Invalidate(old.ID)
			}
			next.upsert(e)
		} else {
			if old, ok := next.get(relPath); ok {
				idx.mmap.Invalidate(old.ID)
			}
			next.remove(relPath)
		}
	}
	for _, relPath := range creates {
		absPath := idx.absPath(relPath)
		if e, ok := buildEntry(absPath, relPath, idx.opts.MaxFileSize); ok {
			next.upsert(e)
		}
	}

	idx.current.Store(next)
	idx.generation.Add(1)
}

func (idx *Index) absPath(relPath string) string {
	return joinBase(idx.BasePath(), relPath)
}
