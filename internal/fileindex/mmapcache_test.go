package fileindex

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMMAPCacheGetAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("hello world\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := newMMAPCache(4)
	data, isMMap, err := c.Get(1, path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world\n" {
		t.Fatalf("unexpected data: %q", data)
	}
	_ = isMMap

	if c.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", c.Len())
	}

	c.Invalidate(1)
	if c.Len() != 0 {
		t.Fatal("expected cache to be empty after invalidate")
	}
}

func TestMMAPCacheEvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	c := newMMAPCache(2)

	for i := uint32(1); i <= 3; i++ {
		path := filepath.Join(dir, string(rune('a'+i)))
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, _, err := c.Get(i, path); err != nil {
			t.Fatal(err)
		}
	}

	if c.Len() != 2 {
		t.Fatalf("expected capacity-bounded cache to hold 2 entries, got %d", c.Len())
	}
}
