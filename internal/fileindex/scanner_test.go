package fileindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, dir string) {
	t.Helper()
	mustWrite := func(rel, content string) {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("src/main.rs", "fn main() {}\n")
	mustWrite("src/lib.rs", "pub fn lib() {}\n")
	mustWrite("README.md", "# readme\n")
	mustWrite("tests/t.rs", "fn t() {}\n")
	mustWrite(".gitignore", "ignored.txt\n")
	mustWrite("ignored.txt", "should not appear\n")
}

func TestScanTreeIndexesEligibleFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	res := scanTree(context.Background(), ScannerOptions{BasePath: dir, MaxThreads: 4, MaxFileSize: 1024 * 1024})
	if res.err != nil {
		t.Fatalf("scan failed: %v", res.err)
	}

	paths := map[string]bool{}
	for _, e := range res.table.entries {
		paths[e.RelativePath] = true
		if filepath.Base(e.RelativePath) != e.FileName {
			t.Fatalf("file_name mismatch for %s", e.RelativePath)
		}
	}

	for _, want := range []string{"src/main.rs", "src/lib.rs", "README.md", "tests/t.rs"} {
		if !paths[want] {
			t.Fatalf("expected %s to be indexed, got %v", want, paths)
		}
	}
	if paths["ignored.txt"] {
		t.Fatal("ignored.txt should have been excluded by .gitignore")
	}
}

func TestScanTreeRejectsMissingBasePath(t *testing.T) {
	res := scanTree(context.Background(), ScannerOptions{BasePath: filepath.Join(t.TempDir(), "nope")})
	if res.err == nil {
		t.Fatal("expected an error for a missing base path")
	}
}

func TestScanTreeFlagsLargeFiles(t *testing.T) {
	dir := t.TempDir()
	big := make([]byte, 2048)
	if err := os.WriteFile(filepath.Join(dir, "big.bin"), big, 0644); err != nil {
		t.Fatal(err)
	}

	res := scanTree(context.Background(), ScannerOptions{BasePath: dir, MaxThreads: 2, MaxFileSize: 1024})
	if res.err != nil {
		t.Fatal(res.err)
	}
	e, ok := res.table.get("big.bin")
	if !ok {
		t.Fatal("big.bin should still be indexed, only flagged large")
	}
	if !e.IsLarge {
		t.Fatal("expected big.bin to be flagged large")
	}
}
