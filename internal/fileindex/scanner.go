package fileindex

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/fff/internal/ffconfig"
	"github.com/standardbeagle/fff/internal/fferr"
)

// ScannerOptions configures a single scan pass.
type ScannerOptions struct {
	BasePath        string
	MaxThreads      int
	MaxFileSize     int64 // informational ceiling; files above are flagged large, still indexed
	AllowHiddenDirs bool
	ExtraIgnore     []string
	ExtraInclude    []string
}

func (o ScannerOptions) threads() int {
	if o.MaxThreads > 0 {
		return o.MaxThreads
	}
	return ffconfig.DefaultMaxThreads
}

// scanResult is the outcome of one scan pass.
type scanResult struct {
	table        *table
	scannedCount int64
	skippedCount int64
	err          error
}

// scanTree walks opts.BasePath honouring VCS-ignore semantics, symlink-loop
// protection, and hidden-dotfile exclusion, building a fresh table. File
// metadata collection (stat + binary prefix read) is farmed out to a
// bounded worker pool; the directory walk itself stays single-threaded
// since readdir calls don't parallelise well and ordering matters for
// symlink-cycle tracking.
func scanTree(ctx context.Context, opts ScannerOptions) scanResult {
	root := opts.BasePath
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return scanResult{err: fferr.Wrap(fferr.InvalidArgument, "scanner: resolving base path", err)}
	}

	if info, statErr := os.Stat(absRoot); statErr != nil || !info.IsDir() {
		if statErr != nil {
			return scanResult{err: fferr.Wrap(fferr.NotFound, "scanner: base path does not exist", statErr)}
		}
		return scanResult{err: fferr.New(fferr.InvalidArgument, "scanner: base path is not a directory")}
	}

	matcher := newDefaultIgnoreMatcher(absRoot, opts.ExtraIgnore, opts.ExtraInclude)

	type job struct {
		absPath string
		relPath string
	}

	jobs := make(chan job, 256)
	var mu sync.Mutex
	result := newTable()
	var scanned atomic.Int64
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(opts.threads()))

	g.Go(func() error {
		for j := range jobs {
			j := j
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			g.Go(func() error {
				defer sem.Release(1)
				entry, ok := buildEntry(j.absPath, j.relPath, opts.MaxFileSize)
				if !ok {
					skipped.Add(1)
					return nil
				}
				mu.Lock()
				result.upsert(entry)
				mu.Unlock()
				scanned.Add(1)
				return nil
			})
		}
		return nil
	})

	visitedDirs := make(map[string]bool)
	walkErr := walkDir(gctx, absRoot, absRoot, matcher, opts.AllowHiddenDirs, visitedDirs, func(absPath, relPath string) {
		select {
		case jobs <- job{absPath: absPath, relPath: relPath}:
		case <-gctx.Done():
		}
	})
	close(jobs)

	if gerr := g.Wait(); gerr != nil && walkErr == nil {
		walkErr = gerr
	}

	if walkErr != nil && scanned.Load() == 0 {
		return scanResult{err: fferr.Wrap(fferr.ScanFailed, "scanner: walk failed before any progress", walkErr)}
	}

	return scanResult{table: result, scannedCount: scanned.Load(), skippedCount: skipped.Load()}
}

// walkDir recursively visits dirPath, invoking emit(absPath, relPath) for
// every eligible regular file. Cancellation is observed at directory
// boundaries. Symlinked directories are followed but guarded against
// cycles via visited, keyed by the resolved real path.
func walkDir(ctx context.Context, root, dirPath string, matcher *ignoreMatcher, allowHidden bool, visited map[string]bool, emit func(abs, rel string)) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	real, err := filepath.EvalSymlinks(dirPath)
	if err == nil {
		if visited[real] {
			return nil
		}
		visited[real] = true
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil // unreadable directory: skip, not fatal
	}

	for _, d := range entries {
		name := d.Name()
		if !allowHidden && strings.HasPrefix(name, ".") && name != "." && name != ".." {
			continue
		}

		absPath := filepath.Join(dirPath, name)
		relPath := filepath.ToSlash(mustRel(root, absPath))

		info, infoErr := d.Info()
		isDir := d.IsDir()
		if infoErr == nil && info.Mode()&fs.ModeSymlink != 0 {
			if target, statErr := os.Stat(absPath); statErr == nil {
				isDir = target.IsDir()
			}
		}

		if matcher.shouldIgnore(relPath, isDir) {
			continue
		}

		if isDir {
			if err := walkDir(ctx, root, absPath, matcher, allowHidden, visited, emit); err != nil {
				return err
			}
			continue
		}

		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			continue // skip sockets, devices, etc.
		}

		emit(absPath, relPath)
	}
	return nil
}

func mustRel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

func buildEntry(absPath, relPath string, maxFileSize int64) (FileEntry, bool) {
	info, err := os.Stat(absPath)
	if err != nil {
		return FileEntry{}, false
	}
	if info.IsDir() {
		return FileEntry{}, false
	}

	fileName := filepath.Base(relPath)
	ext := filepath.Ext(fileName)

	isLarge := maxFileSize > 0 && info.Size() > maxFileSize
	isBinary := detectBinary(absPath, fileName)

	return FileEntry{
		AbsolutePath:        absPath,
		RelativePath:        relPath,
		FileName:            fileName,
		Extension:           ext,
		SizeBytes:           info.Size(),
		ModifiedUnixSeconds: info.ModTime().Unix(),
		IsBinary:            isBinary,
		IsLarge:             isLarge,
	}, true
}
