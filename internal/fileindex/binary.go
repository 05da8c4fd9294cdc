package fileindex

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/fff/internal/ffconfig"
)

// isBinaryByExtension does an O(1) fast-path check before ever touching
// the filesystem, mirroring the teacher's binary_detector.go.
func isBinaryByExtension(fileName string) (binary bool, known bool) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return false, false
	}
	v, ok := ffconfig.BinaryExtensions[ext]
	return v, ok
}

// detectBinary reads a small prefix of the file and applies a heuristic:
// presence of a NUL byte in the first ffconfig.BinaryPreCheckBytes, as used
// by git and most file-finders. This is computed once per scan and never
// revised mid-scan, per the FileEntry invariant.
func detectBinary(path string, fileName string) bool {
	if binary, known := isBinaryByExtension(fileName); known {
		return binary
	}

	f, err := os.Open(path)
	if err != nil {
		// unreadable: treat conservatively as non-binary so it still gets
		// indexed (and is simply skipped later when actually opened).
		return false
	}
	defer f.Close()

	buf := make([]byte, ffconfig.BinaryPreCheckBytes)
	n, _ := f.Read(buf)
	return bytes.IndexByte(buf[:n], 0) >= 0
}
