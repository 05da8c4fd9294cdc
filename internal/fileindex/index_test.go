package fileindex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/standardbeagle/fff/internal/fflog"
)

func TestIndexInitialScanAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	idx, err := New(Options{BasePath: dir, DisableWatcher: true}, mustLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if !idx.WaitForScan(5 * time.Second) {
		t.Fatal("scan did not complete in time")
	}

	snap := idx.Snapshot()
	if len(snap) == 0 {
		t.Fatal("expected a non-empty snapshot after scan")
	}
	if idx.Generation() == 0 {
		t.Fatal("expected generation to have been bumped by the initial scan")
	}

	_, _, scanErr := idx.ScanProgress()
	if scanErr != "" {
		t.Fatalf("unexpected scan error: %s", scanErr)
	}
}

func TestIndexApplyDeltaBumpsGenerationOnce(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	idx, err := New(Options{BasePath: dir, DisableWatcher: true}, mustLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	idx.WaitForScan(5 * time.Second)

	before := idx.Generation()

	newFile := filepath.Join(dir, "src", "new.rs")
	if err := os.WriteFile(newFile, []byte("fn new() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	idx.applyDelta([]string{"src/new.rs"}, nil, []string{"README.md"})

	if idx.Generation() != before+1 {
		t.Fatalf("expected exactly one generation bump, got %d -> %d", before, idx.Generation())
	}

	if _, ok := idx.Lookup("src/new.rs"); !ok {
		t.Fatal("expected newly created file to be present after delta")
	}
	if _, ok := idx.Lookup("README.md"); ok {
		t.Fatal("expected removed file to be absent after delta")
	}
}

func TestIndexRestartSwapsBasePath(t *testing.T) {
	dirA := t.TempDir()
	writeTree(t, dirA)
	dirB := t.TempDir()
	if err := os.WriteFile(filepath.Join(dirB, "only.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := New(Options{BasePath: dirA, DisableWatcher: true}, mustLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	idx.WaitForScan(5 * time.Second)

	idx.RestartIndex(dirB)
	idx.WaitForScan(5 * time.Second)

	if idx.BasePath() != dirB {
		t.Fatalf("expected base path to be swapped to %s, got %s", dirB, idx.BasePath())
	}
	if _, ok := idx.Lookup("only.txt"); !ok {
		t.Fatal("expected only.txt from the new base path to be indexed")
	}
}

func mustLogger(t *testing.T) *fflog.Logger {
	t.Helper()
	l, err := fflog.New("", fflog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}
	return l
}
