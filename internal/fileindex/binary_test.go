package fileindex

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsBinaryByExtension(t *testing.T) {
	binary, known := isBinaryByExtension("photo.png")
	if !known || !binary {
		t.Fatal("expected photo.png to be a known binary extension")
	}

	binary, known = isBinaryByExtension("icon.svg")
	if !known || binary {
		t.Fatal("expected icon.svg to be explicitly known non-binary")
	}

	_, known = isBinaryByExtension("main.go")
	if known {
		t.Fatal("main.go should fall through to the prefix heuristic")
	}
}

func TestDetectBinaryByNulPrefix(t *testing.T) {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "main.go")
	if err := os.WriteFile(textPath, []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if detectBinary(textPath, "main.go") {
		t.Fatal("text file misdetected as binary")
	}

	binPath := filepath.Join(dir, "blob.dat")
	if err := os.WriteFile(binPath, []byte{0x00, 0x01, 0x02, 0x03}, 0644); err != nil {
		t.Fatal(err)
	}
	if !detectBinary(binPath, "blob.dat") {
		t.Fatal("NUL-containing file should be detected binary")
	}
}
