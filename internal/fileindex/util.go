package fileindex

import "path/filepath"

// joinBase reconstructs an absolute path from a base directory and a
// forward-slash relative path, as produced by the watcher's fsnotify event
// paths (which arrive as native absolute paths and are converted back to
// relative form before being queued for the debouncer).
func joinBase(base, relPath string) string {
	return filepath.Join(base, filepath.FromSlash(relPath))
}
