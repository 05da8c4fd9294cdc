// Package facade implements the single opaque Handle (spec §4.8) that
// wires the File Index, Fuzzy Scorer, Grep Engine, Frecency Tracker,
// Query-History Tracker, and VCS Status Cache together behind a flat
// operation set. Every Handle owns its own state — there is no global
// mutable singleton — so multiple Handles can coexist in one process.
package facade

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/standardbeagle/fff/internal/ffconfig"
	"github.com/standardbeagle/fff/internal/fferr"
	"github.com/standardbeagle/fff/internal/fflog"
	"github.com/standardbeagle/fff/internal/fileindex"
	"github.com/standardbeagle/fff/internal/frecency"
	"github.com/standardbeagle/fff/internal/fuzzy"
	"github.com/standardbeagle/fff/internal/kvstore"
	"github.com/standardbeagle/fff/internal/queryhistory"
	"github.com/standardbeagle/fff/internal/vcsstatus"
)

// InitOptions configures Create (spec §6's Init options).
type InitOptions struct {
	BasePath        string
	FrecencyDBPath  string
	HistoryDBPath   string
	UseUnsafeNoLock bool
	WarmupMMAPCache bool
	MaxThreads      int
	LogPath         string
	LogLevel        fflog.Level
}

// Handle is the opaque handle every Facade operation is a method on.
type Handle struct {
	opts InitOptions
	log  *fflog.Logger

	index         *fileindex.Index
	frecencyStore *kvstore.Store
	frecencyTrack *frecency.Tracker
	historyStore  *kvstore.Store
	history       *queryhistory.Tracker
	vcs           atomic.Pointer[vcsstatus.Cache]

	closed atomic.Bool
}

// Create builds a fresh Handle: opens the persistent stores, starts the
// File Index's initial scan (non-blocking), and takes an initial VCS
// status snapshot.
func Create(opts InitOptions) (*Handle, error) {
	if opts.BasePath == "" {
		return nil, fferr.New(fferr.InvalidArgument, "facade: base_path is required")
	}
	if opts.FrecencyDBPath == "" {
		opts.FrecencyDBPath = filepath.Join(opts.BasePath, ".fff", "frecency.db")
	}
	if opts.HistoryDBPath == "" {
		opts.HistoryDBPath = filepath.Join(opts.BasePath, ".fff", "history.db")
	}
	if opts.MaxThreads <= 0 {
		opts.MaxThreads = ffconfig.DefaultMaxThreads
	}
	if opts.LogLevel == "" {
		opts.LogLevel = fflog.LevelInfo
	}

	log, err := fflog.New(opts.LogPath, opts.LogLevel)
	if err != nil {
		return nil, fferr.Wrap(fferr.Internal, "facade: open log", err)
	}

	frecencyStore, err := kvstore.Open(opts.FrecencyDBPath, opts.UseUnsafeNoLock)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	frecencyTrack, err := frecency.New(frecencyStore, log)
	if err != nil {
		_ = frecencyStore.Close()
		_ = log.Close()
		return nil, err
	}

	historyStore, err := kvstore.Open(opts.HistoryDBPath, opts.UseUnsafeNoLock)
	if err != nil {
		_ = frecencyStore.Close()
		_ = log.Close()
		return nil, err
	}
	history, err := queryhistory.New(historyStore, log, ffconfig.QueryHistoryCap)
	if err != nil {
		_ = historyStore.Close()
		_ = frecencyStore.Close()
		_ = log.Close()
		return nil, err
	}

	vcs, err := vcsstatus.Open(opts.BasePath, log)
	if err != nil {
		_ = history.Close()
		_ = historyStore.Close()
		_ = frecencyStore.Close()
		_ = log.Close()
		return nil, err
	}
	if vcs.HasRepository() {
		if _, err := vcs.Refresh(); err != nil {
			log.Warn("initial vcs status refresh failed", "error", err)
		}
	}

	index, err := fileindex.New(fileindex.Options{
		BasePath:        opts.BasePath,
		MaxThreads:      opts.MaxThreads,
		WarmupMMAPCache: opts.WarmupMMAPCache,
	}, log)
	if err != nil {
		_ = history.Close()
		_ = historyStore.Close()
		_ = frecencyStore.Close()
		_ = log.Close()
		return nil, err
	}

	h := &Handle{
		opts:          opts,
		log:           log,
		index:         index,
		frecencyStore: frecencyStore,
		frecencyTrack: frecencyTrack,
		historyStore:  historyStore,
		history:       history,
	}
	h.vcs.Store(vcs)
	index.OnVCSDirEvent(h.refreshVCSAsync)

	return h, nil
}

// Destroy stops the File Index (scanner, watcher and mmap cache) and closes
// the trackers, the KV stores and the log. It does not wait for the
// goroutines started by TrackAccess, by RestartIndex's VCS reopen, or by a
// watcher-triggered VCS refresh; those may still be running when it returns.
// Idempotent.
func (h *Handle) Destroy() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(h.index.Close())
	record(h.history.Close())
	record(h.historyStore.Close())
	record(h.frecencyTrack.Close())
	record(h.frecencyStore.Close())
	record(h.log.Close())

	return firstErr
}

func (h *Handle) refreshVCSAsync() {
	if h.closed.Load() {
		return
	}
	go func() {
		if _, err := h.RefreshVCSStatus(); err != nil {
			h.log.Warn("vcs status refresh failed", "error", err)
		}
	}()
}

// ScanFiles requests a fresh scan; fire-and-forget.
func (h *Handle) ScanFiles() {
	h.index.ScanFiles()
}

// IsScanning reports whether a scan is currently in flight.
func (h *Handle) IsScanning() bool {
	return h.index.IsScanning()
}

// ScanProgress reports the running scan's progress.
func (h *Handle) ScanProgress() (scannedCount int64, isScanning bool, scanError string) {
	return h.index.ScanProgress()
}

// WaitForScan blocks until the current scan completes or timeoutMs elapses
// (0 means wait indefinitely).
func (h *Handle) WaitForScan(timeoutMs int64) bool {
	return h.index.WaitForScan(time.Duration(timeoutMs) * time.Millisecond)
}

// RestartIndex cancels the current scan/warmup, swaps the base path, and
// starts a fresh scan against it; fire-and-forget. The VCS cache is
// reopened against the new base path once the index accepts the restart.
func (h *Handle) RestartIndex(newBasePath string) {
	h.index.RestartIndex(newBasePath)
	go func() {
		if h.closed.Load() {
			return
		}
		vcs, err := vcsstatus.Open(newBasePath, h.log)
		if err != nil {
			h.log.Warn("vcs reopen after restart_index failed", "error", err)
			return
		}
		if vcs.HasRepository() {
			if _, err := vcs.Refresh(); err != nil {
				h.log.Warn("vcs refresh after restart_index failed", "error", err)
			}
		}
		h.vcs.Store(vcs)
	}()
}

// TrackAccess bumps the frecency record for an absolute path;
// fire-and-forget.
func (h *Handle) TrackAccess(absolutePath string) {
	go h.frecencyTrack.TrackAccess(absolutePath)
}

// RefreshVCSStatus forces a synchronous full VCS status refresh.
func (h *Handle) RefreshVCSStatus() (int, error) {
	return h.vcs.Load().Refresh()
}

// TrackQuery records a completed query/selection pair in the history log.
func (h *Handle) TrackQuery(query, selectedPath string) {
	h.history.TrackCompletion(query, selectedPath)
}

// HistoricalQuery returns the query offset entries back from the most
// recent (offset=0 is most recent).
func (h *Handle) HistoricalQuery(offset int) (string, bool) {
	return h.history.HistoricalQuery(offset)
}

// SuggestQuery finds the query in history most similar to typo, for a "did
// you mean" fallback when a caller's typed query doesn't land on an exact
// normalized match in history. Returns ok=false if history is empty.
func (h *Handle) SuggestQuery(typo string) (suggestion string, similarity float64, ok bool) {
	history := h.history.AllQueries()
	if len(history) == 0 {
		return "", 0, false
	}
	suggestion, similarity = fuzzy.SuggestQuery(typo, history)
	return suggestion, similarity, suggestion != ""
}
