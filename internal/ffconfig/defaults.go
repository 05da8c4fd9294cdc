// Package ffconfig collects the internal tunables fff's subsystems default
// to. It is deliberately not a config-file parser — spec scope places
// configuration parsing with the external collaborator (the editor-side
// picker), so these are plain Go defaults the Facade's option structs fall
// back to, mirroring the teacher's internal/types constants block.
package ffconfig

import "time"

const (
	// DefaultMaxFileSize is the grep max_file_size default (10 MB).
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// DefaultMaxMatchesPerFile bounds grep matches collected from a single
	// file before the remainder is dropped for this page.
	DefaultMaxMatchesPerFile = 200

	// DefaultPageLimit is the grep page_limit default.
	DefaultPageLimit = 50

	// MinPageLimitFraction is the fraction of page_limit that a time-budget
	// expiry must still satisfy before a page is allowed to return early.
	MinPageLimitFraction = 0.5

	// DefaultSearchPageSize is the fuzzy-search page_size default.
	DefaultSearchPageSize = 100

	// DefaultComboBoostMultiplier is the scorer's combo_boost_multiplier default.
	DefaultComboBoostMultiplier = 100

	// DefaultMinComboCount is the scorer's min_combo_count default.
	DefaultMinComboCount = 3

	// MaxQueryLength truncates pathological fuzzy queries (applied by
	// fuzzy.Score); grep queries are not truncated.
	MaxQueryLength = 4096

	// LineContentSoftLimit truncates an over-long grep line for display.
	LineContentSoftLimit = 2048

	// BinaryPreCheckBytes is the prefix size read to heuristically decide
	// whether a file is binary.
	BinaryPreCheckBytes = 512

	// FrecencyCeiling caps the frecency_boost component of the composite
	// score so a single very hot file cannot dominate every query.
	FrecencyCeiling = 1000

	// FrecencyAccessHalfLife is the documented half-life (see spec Open
	// Questions) for the access component of frecency: after this many
	// seconds elapsed since last_access, the access_score has halved.
	FrecencyAccessHalfLife = 7 * 24 * time.Hour

	// FrecencyModificationHalfLife is the half-life for the modification
	// component.
	FrecencyModificationHalfLife = 3 * 24 * time.Hour

	// FrecencyZeroHorizon is the elapsed duration beyond which a frecency
	// component is treated as zero (roughly five half-lives of the slower
	// of the two components).
	FrecencyZeroHorizon = 35 * 24 * time.Hour

	// QueryHistoryCap bounds the number of retained history log entries.
	QueryHistoryCap = 1000

	// WatcherDebounceWindow is the coalescing window for filesystem events.
	WatcherDebounceWindow = 100 * time.Millisecond

	// VCSRefreshDebounceWindow is the coalescing window for VCS-metadata-
	// directory events driving a status cache refresh.
	VCSRefreshDebounceWindow = 150 * time.Millisecond

	// DefaultMaxThreads is used when a caller omits max_threads/thread hints.
	DefaultMaxThreads = 8
)

// SpecialFilenames is the first-class, documented, configurable list of
// basename glob patterns that earn special_filename_bonus in the fuzzy
// scorer. Callers may override it via fuzzy.Options.SpecialFilenames.
var SpecialFilenames = []string{
	"index.*",
	"main.*",
	"mod.rs",
	"lib.rs",
	"README*",
	"Makefile",
	"Dockerfile",
	"go.mod",
	"package.json",
	"Cargo.toml",
}

// BinaryExtensions is the fast-path extension set used by the scanner to
// flag a file binary without reading its prefix. Kept small and
// conservative; the prefix heuristic is still authoritative for anything
// not listed here.
var BinaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true,
	".mp3": true, ".mp4": true, ".wav": true, ".avi": true, ".mov": true, ".mkv": true, ".flac": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	// explicitly NOT binary despite superficially resembling build output
	".svg": false, ".min.js": false, ".min.css": false, ".map": false, ".proto": false,
}
