package fileindex

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignorePattern is a single parsed gitignore-style line. The field shape
// mirrors the teacher's GitignorePattern, but matching itself is delegated
// to doublestar.Match instead of a hand-rolled glob-to-regexp translator.
type ignorePattern struct {
	pattern   string
	negate    bool
	directory bool
	absolute  bool
}

// ignoreMatcher combines .gitignore patterns discovered under the scan
// root with a fixed set of always-ignored names and any caller-supplied
// include/exclude overrides.
type ignoreMatcher struct {
	patterns []ignorePattern
}

func newIgnoreMatcher() *ignoreMatcher {
	return &ignoreMatcher{}
}

// loadGitignore reads rootPath/.gitignore, if present, appending its
// patterns. Absence of the file is not an error.
func (m *ignoreMatcher) loadGitignore(rootPath string) error {
	f, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, parseIgnoreLine(line))
	}
	return scanner.Err()
}

// addPattern registers a single pattern line; used for explicit includes/
// excludes passed via InitOptions and for the always-ignored defaults.
func (m *ignoreMatcher) addPattern(line string) {
	m.patterns = append(m.patterns, parseIgnoreLine(line))
}

func parseIgnoreLine(line string) ignorePattern {
	p := ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.absolute = true
		line = strings.TrimPrefix(line, "/")
	}
	p.pattern = line
	return p
}

// defaultAlwaysIgnored is merged into every matcher: VCS metadata
// directories and common dependency/build caches that a file finder never
// wants to surface, regardless of .gitignore content.
var defaultAlwaysIgnored = []string{
	".git/", ".hg/", ".svn/", "node_modules/", ".DS_Store",
}

// shouldIgnore reports whether relPath (forward-slash, relative to the scan
// root) should be excluded. isDir indicates whether relPath names a
// directory: a directory-only pattern matches a directory itself, and a file
// only through one of its parent directories.
func (m *ignoreMatcher) shouldIgnore(relPath string, isDir bool) bool {
	ignored := false
	for _, p := range m.patterns {
		matched := false
		if p.directory && !isDir {
			for i := 0; i < len(relPath) && !matched; i++ {
				if relPath[i] == '/' {
					matched = matchIgnorePattern(p, relPath[:i])
				}
			}
		} else {
			matched = matchIgnorePattern(p, relPath)
		}
		if matched {
			ignored = !p.negate
		}
	}
	return ignored
}

func matchIgnorePattern(p ignorePattern, relPath string) bool {
	pattern := p.pattern
	if !strings.Contains(pattern, "/") && !p.absolute {
		// Bare basename pattern: match against any path segment, not just
		// a full-path prefix, mirroring gitignore semantics.
		base := relPath
		if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
			base = relPath[idx+1:]
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
		ok, _ := doublestar.Match("**/"+pattern, relPath)
		return ok
	}

	if p.absolute {
		ok, _ := doublestar.Match(pattern, relPath)
		return ok
	}

	ok, _ := doublestar.Match(pattern, relPath)
	if ok {
		return true
	}
	ok, _ = doublestar.Match("**/"+pattern, relPath)
	return ok
}

func newDefaultIgnoreMatcher(rootPath string, extraIgnore, extraInclude []string) *ignoreMatcher {
	m := newIgnoreMatcher()
	for _, p := range defaultAlwaysIgnored {
		m.addPattern(p)
	}
	_ = m.loadGitignore(rootPath)
	for _, p := range extraIgnore {
		m.addPattern(p)
	}
	for _, p := range extraInclude {
		m.addPattern("!" + p)
	}
	return m
}
