package fileindex

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/fff/internal/ffconfig"
	"github.com/standardbeagle/fff/internal/fflog"
)

// fileEventKind classifies a coalesced filesystem event, grounded on the
// teacher's FileEventType (internal/indexing/watcher.go) but trimmed to
// the three kinds the File Index's delta application actually needs.
type fileEventKind int

const (
	eventCreate fileEventKind = iota
	eventWrite
	eventRemove
)

// eventDebouncer coalesces events per-path within a small window: only the
// latest event for a given path survives, and a burst never grows a
// pending queue unboundedly (spec §5's back-pressure requirement).
//
// Mirrors the teacher's eventDebouncer: Stop cancels the pending timer
// without flushing. Flushing on shutdown can race the index's own Close
// (the callback would try to publish into a table that's being torn down),
// so a pending batch at shutdown time is simply dropped.
type eventDebouncer struct {
	mu      sync.Mutex
	events  map[string]fileEventKind
	timer   *time.Timer
	window  time.Duration
	onFlush func(map[string]fileEventKind)
}

func newEventDebouncer(window time.Duration, onFlush func(map[string]fileEventKind)) *eventDebouncer {
	return &eventDebouncer{
		events:  make(map[string]fileEventKind),
		window:  window,
		onFlush: onFlush,
	}
}

func (d *eventDebouncer) add(path string, kind fileEventKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[path] = kind
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *eventDebouncer) flush() {
	d.mu.Lock()
	events := d.events
	d.events = make(map[string]fileEventKind)
	d.mu.Unlock()

	if len(events) > 0 {
		d.onFlush(events)
	}
}

func (d *eventDebouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// watcher owns a single fsnotify source and a single debouncer goroutine,
// applying coalesced batches onto an Index. Holds only a plain pointer back
// to the Index (not a reference-counted one): events delivered after the
// Index has begun closing are simply discarded, per spec §9's
// hub-owned-subsystems pattern ("the watcher holds a weak/back reference
// to the index that is checked on every event delivery").
type watcher struct {
	fsw   *fsnotify.Watcher
	idx   *Index
	log   *fflog.Logger
	debounce *eventDebouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	watchedDirs map[string]bool

	vcsTimer *time.Timer
	stopped  atomicBool
}

// atomicBool avoids pulling in sync/atomic.Bool's zero-value caveats in
// this small hand-rolled guard; kept intentionally tiny.
type atomicBool struct {
	mu sync.Mutex
	v  bool
}

func (b *atomicBool) set(v bool) { b.mu.Lock(); b.v = v; b.mu.Unlock() }
func (b *atomicBool) get() bool  { b.mu.Lock(); defer b.mu.Unlock(); return b.v }

func newWatcher(idx *Index, log *fflog.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		fsw:         fsw,
		idx:         idx,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
		watchedDirs: make(map[string]bool),
	}
	w.debounce = newEventDebouncer(ffconfig.WatcherDebounceWindow, w.applyBatch)

	w.addWatchesRecursive(idx.BasePath(), make(map[string]bool))

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

func (w *watcher) addWatchesRecursive(dir string, visited map[string]bool) {
	real, err := filepath.EvalSymlinks(dir)
	if err == nil {
		if visited[real] {
			return
		}
		visited[real] = true
	}

	w.mu.Lock()
	already := w.watchedDirs[dir]
	if !already {
		w.watchedDirs[dir] = true
	}
	w.mu.Unlock()
	if !already {
		if err := w.fsw.Add(dir); err != nil {
			w.log.Warn("fileindex: watch add failed", "dir", dir, "error", err)
			return
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && name != ".git" {
			continue // don't descend into hidden dirs except .git, which we still watch for status events
		}
		if e.IsDir() {
			w.addWatchesRecursive(filepath.Join(dir, name), visited)
		}
	}
}

// resync is called after every completed scan to pick up newly created
// directories the initial watch set didn't know about yet.
func (w *watcher) resync(basePath string) {
	w.addWatchesRecursive(basePath, make(map[string]bool))
}

func (w *watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("fileindex: watcher error", "error", err)
		}
	}
}

func (w *watcher) handleEvent(ev fsnotify.Event) {
	base := w.idx.BasePath()
	rel, err := filepath.Rel(base, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if strings.HasPrefix(rel, ".git/") || rel == ".git" {
		w.scheduleVCSRefresh()
		return
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			w.addWatchesRecursive(ev.Name, make(map[string]bool))
			return
		}
		w.debounce.add(rel, eventCreate)
	case ev.Op&fsnotify.Write != 0:
		w.debounce.add(rel, eventWrite)
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.debounce.add(rel, eventRemove)
	}
}

func (w *watcher) scheduleVCSRefresh() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.vcsTimer != nil {
		w.vcsTimer.Stop()
	}
	w.vcsTimer = time.AfterFunc(ffconfig.VCSRefreshDebounceWindow, func() {
		if w.idx.onVCSDirEvent != nil {
			w.idx.onVCSDirEvent()
		}
	})
}

func (w *watcher) applyBatch(events map[string]fileEventKind) {
	if w.stopped.get() {
		return
	}

	var creates, changes, removes []string
	for path, kind := range events {
		switch kind {
		case eventCreate:
			creates = append(creates, path)
		case eventWrite:
			changes = append(changes, path)
		case eventRemove:
			removes = append(removes, path)
		}
	}

	// Removes first, then changes, then creates: matches the teacher's
	// batch-application order so a rename (remove+create of different
	// paths) never transiently resurrects a stale entry.
	w.idx.applyDelta(creates, changes, removes)
}

func (w *watcher) stop() {
	w.stopped.set(true)
	w.cancel()
	w.debounce.stop()
	w.mu.Lock()
	if w.vcsTimer != nil {
		w.vcsTimer.Stop()
	}
	w.mu.Unlock()
	_ = w.fsw.Close()
	w.wg.Wait()
}
