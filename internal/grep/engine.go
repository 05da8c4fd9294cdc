// Package grep implements the Live-Grep Engine (spec §4.7): it walks the
// file index in frecency-descending order, opens/mmaps eligible files,
// applies a per-mode line matcher, and paginates via an opaque cursor with
// the guarantee that a page boundary never lies inside a single file.
package grep

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/fff/internal/ffconfig"
	"github.com/standardbeagle/fff/internal/fferr"
)

// Candidate is everything the engine needs about one indexed file,
// pre-joined by the caller (the Facade) from the File Index and Frecency
// Tracker. Keeping grep decoupled from those packages avoids an import
// cycle, mirroring internal/fuzzy's Candidate.
type Candidate struct {
	RelativePath  string
	FileName      string
	Extension     string
	AbsolutePath  string
	SizeBytes     int64
	IsBinary      bool
	FrecencyTotal int64
}

// ContentLoader fetches a candidate's body. The Facade wires this to the
// File Index's mmap cache; tests can substitute an in-memory loader.
type ContentLoader func(c Candidate) ([]byte, error)

// Match is one matched line, spec §3's GrepMatch.
type Match struct {
	RelativePath string
	LineNumber   int
	Col          int
	ByteOffset   int64
	LineContent  string
	MatchRanges  [][2]int
	FuzzyScore   *int
}

// Options configures one Search call (spec §4.7's GrepOptions).
//
// MaxFileSize is a pointer for the same reason as fuzzy.Options.PageSize:
// nil means "unset, apply the default", while a non-nil pointer — including
// one holding 0 — is honored literally. Per spec.md §8, an explicit
// MaxFileSize of 0 excludes every file (FilteredFileCount == 0) rather than
// silently falling back to the default ceiling.
type Options struct {
	Mode              Mode
	MaxFileSize       *int64
	MaxMatchesPerFile int
	SmartCase         bool
	Cursor            string
	PageLimit         int
	TimeBudgetMs      int64
	MaxThreads        int
	LineContentLimit  int
}

// int64Ptr is the constructor callers use to set an explicit MaxFileSize.
func int64Ptr(n int64) *int64 { return &n }

// DefaultOptions mirrors the Facade's documented GrepOptions defaults.
func DefaultOptions() Options {
	return Options{
		Mode:              ModeLiteral,
		MaxFileSize:       nil,
		MaxMatchesPerFile: ffconfig.DefaultMaxMatchesPerFile,
		SmartCase:         true,
		PageLimit:         ffconfig.DefaultPageLimit,
		TimeBudgetMs:      0,
		MaxThreads:        ffconfig.DefaultMaxThreads,
		LineContentLimit:  ffconfig.LineContentSoftLimit,
	}
}

// Result is spec §6's GrepResult payload.
type Result struct {
	Items              []Match
	TotalMatched       int
	TotalFilesSearched int
	TotalFiles         int
	FilteredFileCount  int
	NextCursor         string
	RegexFallbackError string
}

type fileOutcome struct {
	candidate Candidate
	opened    bool
	matches   []lineMatch
}

// Search walks candidates in frecency-descending order (stable, path
// ascending tie-break), applies query-embedded constraints and the
// per-mode matcher, and returns one page of results.
func Search(ctx context.Context, query string, candidates []Candidate, load ContentLoader, opts Options) (Result, error) {
	if opts.PageLimit <= 0 {
		opts.PageLimit = ffconfig.DefaultPageLimit
	}
	if opts.MaxMatchesPerFile <= 0 {
		opts.MaxMatchesPerFile = ffconfig.DefaultMaxMatchesPerFile
	}
	maxFileSize := ffconfig.DefaultMaxFileSize
	if opts.MaxFileSize != nil {
		maxFileSize = *opts.MaxFileSize
	}
	if opts.MaxThreads <= 0 {
		opts.MaxThreads = ffconfig.DefaultMaxThreads
	}
	if opts.LineContentLimit <= 0 {
		opts.LineContentLimit = ffconfig.LineContentSoftLimit
	}
	if opts.Mode == "" {
		opts.Mode = ModeLiteral
	}

	content, constraints := ParseQuery(query)
	matcher := newCompiledMatcher(opts.Mode, content, opts.SmartCase)

	order := make([]Candidate, len(candidates))
	copy(order, candidates)
	sort.Slice(order, func(i, j int) bool {
		if order[i].FrecencyTotal != order[j].FrecencyTotal {
			return order[i].FrecencyTotal > order[j].FrecencyTotal
		}
		return order[i].RelativePath < order[j].RelativePath
	})

	eligible := make([]Candidate, 0, len(order))
	for _, c := range order {
		// maxFileSize <= 0 (an explicit MaxFileSize: 0) excludes every file,
		// including empty ones, rather than only files that exceed it.
		if c.IsBinary || maxFileSize <= 0 || c.SizeBytes > maxFileSize {
			continue
		}
		if !constraints.Eligible(c.RelativePath, c.Extension) {
			continue
		}
		eligible = append(eligible, c)
	}

	startIdx := 0
	if opts.Cursor != "" {
		relPath, ok := decodeCursor(opts.Cursor)
		if !ok {
			return Result{}, fferr.New(fferr.InvalidArgument, "grep: malformed cursor")
		}
		startIdx = len(eligible)
		for i, c := range eligible {
			if c.RelativePath == relPath {
				startIdx = i
				break
			}
		}
	}

	var deadline time.Time
	hasDeadline := opts.TimeBudgetMs > 0
	if hasDeadline {
		deadline = time.Now().Add(time.Duration(opts.TimeBudgetMs) * time.Millisecond)
	}
	floor := int(float64(opts.PageLimit) * ffconfig.MinPageLimitFraction)

	res := Result{TotalFiles: len(candidates), FilteredFileCount: len(eligible)}

	waveSize := opts.MaxThreads
	if waveSize < 1 {
		waveSize = 1
	}

	i := startIdx
	for i < len(eligible) {
		end := i + waveSize
		if end > len(eligible) {
			end = len(eligible)
		}
		wave := eligible[i:end]

		outcomes, err := runWave(ctx, wave, load, matcher, opts)
		if err != nil {
			return Result{}, err
		}

		stopped := false
		for _, oc := range outcomes {
			if oc.opened {
				res.TotalFilesSearched++
			}
			res.TotalMatched += len(oc.matches)

			remaining := opts.PageLimit - len(res.Items)
			if remaining <= 0 {
				res.NextCursor = encodeCursor(oc.candidate.RelativePath)
				stopped = true
				break
			}

			matches := oc.matches
			if len(matches) > remaining {
				matches = matches[:remaining]
			}
			for _, lm := range matches {
				res.Items = append(res.Items, Match{
					RelativePath: oc.candidate.RelativePath,
					LineNumber:   lm.lineNumber,
					Col:          lm.col,
					ByteOffset:   lm.byteOffset,
					LineContent:  lm.lineContent,
					MatchRanges:  lm.ranges,
					FuzzyScore:   lm.fuzzyScore,
				})
			}

			if len(oc.matches) > remaining {
				// Page boundary never lies inside a file: drop the excess
				// rather than split it across two pages, and resume at the
				// next file.
				nextIdx := i + indexOf(eligible[i:end], oc.candidate) + 1
				if nextIdx < len(eligible) {
					res.NextCursor = encodeCursor(eligible[nextIdx].RelativePath)
				}
				stopped = true
				break
			}
		}

		if stopped {
			break
		}

		i = end

		if len(res.Items) >= opts.PageLimit {
			if i < len(eligible) {
				res.NextCursor = encodeCursor(eligible[i].RelativePath)
			}
			break
		}

		if hasDeadline && time.Now().After(deadline) && len(res.Items) >= floor {
			if i < len(eligible) {
				res.NextCursor = encodeCursor(eligible[i].RelativePath)
			}
			break
		}
	}

	if matcher.fallbackError != "" {
		res.RegexFallbackError = matcher.fallbackError
	}

	return res, nil
}

func indexOf(cands []Candidate, target Candidate) int {
	for i, c := range cands {
		if c.RelativePath == target.RelativePath {
			return i
		}
	}
	return -1
}

func runWave(ctx context.Context, wave []Candidate, load ContentLoader, matcher compiledMatcher, opts Options) ([]fileOutcome, error) {
	outcomes := make([]fileOutcome, len(wave))
	sem := semaphore.NewWeighted(int64(opts.MaxThreads))
	g, gctx := errgroup.WithContext(ctx)

	for idx, c := range wave {
		idx, c := idx, c
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			outcomes[idx] = searchOneFile(gctx, c, load, matcher, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func searchOneFile(ctx context.Context, c Candidate, load ContentLoader, matcher compiledMatcher, opts Options) fileOutcome {
	body, err := load(c)
	if err != nil {
		return fileOutcome{candidate: c, opened: false}
	}
	matches := matcher.matchLines(ctx, body, opts.MaxMatchesPerFile, opts.LineContentLimit)
	return fileOutcome{candidate: c, opened: true, matches: matches}
}
