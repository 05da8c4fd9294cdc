package facade

import (
	"github.com/standardbeagle/fff/internal/fuzzy"
	"github.com/standardbeagle/fff/internal/vcsstatus"
)

// SearchOptions is spec §6's Search options.
//
// PageSize is a pointer for the same reason as fuzzy.Options.PageSize: nil
// means "unset, use the default", while a non-nil pointer — including one
// holding 0 — is forwarded to Score as-is, so an explicit PageSize: 0 from
// a caller surfaces spec.md §8's invalid_argument instead of being silently
// coerced into the default page.
//
// ComboBoostMultiplier and MinComboCount use 0 for "unset": Search then
// keeps the defaults (100 and 3), so a zero multiplier cannot be passed
// through Search to turn the combo boost off.
type SearchOptions struct {
	MaxThreads           int
	CurrentFile          string
	ComboBoostMultiplier int
	MinComboCount        int
	PageIndex            int
	PageSize             *int
}

// intPtr is the constructor callers use to set an explicit PageSize.
func intPtr(n int) *int { return &n }

// FileEntryProjection is one result row: the File Index's FileEntry
// enriched with the VCS status and frecency figures the spec says are
// "derived snapshots at query time" rather than stored on the entry.
type FileEntryProjection struct {
	AbsolutePath         string
	RelativePath         string
	FileName             string
	Extension            string
	SizeBytes            int64
	ModifiedUnixSeconds  int64
	IsBinary             bool
	VCSStatus            vcsstatus.Status
	FrecencyAccess       int64
	FrecencyModification int64
	FrecencyTotal        int64
}

// SearchResult is spec §3's SearchResult/§6 payload shape.
type SearchResult struct {
	Items        []FileEntryProjection
	Scores       []fuzzy.ScoreBreakdown
	TotalMatched int
	TotalFiles   int
	Location     *fuzzy.Location
}

// Search runs the Fuzzy Scorer over the current index snapshot.
func (h *Handle) Search(query string, opts SearchOptions) (SearchResult, error) {
	matchQuery, location := fuzzy.ParseLocation(query)

	snapshot := h.index.Snapshot()
	vcs := h.vcs.Load()

	candidates := make([]fuzzy.Candidate, len(snapshot))
	byPath := make(map[string]int, len(snapshot))
	for i, e := range snapshot {
		_, _, total := h.frecencyTrack.ScoreFor(e.AbsolutePath, e.ModifiedUnixSeconds)
		candidates[i] = fuzzy.Candidate{
			RelativePath:  e.RelativePath,
			FileName:      e.FileName,
			FrecencyTotal: total,
			ComboCount:    h.history.ComboCount(matchQuery, e.RelativePath),
		}
		byPath[e.RelativePath] = i
	}

	fuzzyOpts := fuzzy.DefaultOptions()
	fuzzyOpts.CurrentFile = opts.CurrentFile
	if opts.ComboBoostMultiplier != 0 {
		fuzzyOpts.ComboBoostMultiplier = opts.ComboBoostMultiplier
	}
	if opts.MinComboCount != 0 {
		fuzzyOpts.MinComboCount = opts.MinComboCount
	}
	fuzzyOpts.PageIndex = opts.PageIndex
	fuzzyOpts.PageSize = opts.PageSize

	results, totalMatched, err := fuzzy.Score(matchQuery, candidates, fuzzyOpts)
	if err != nil {
		return SearchResult{}, err
	}

	items := make([]FileEntryProjection, len(results))
	scores := make([]fuzzy.ScoreBreakdown, len(results))
	for i, r := range results {
		e := snapshot[byPath[r.RelativePath]]
		access, mod, total := h.frecencyTrack.ScoreFor(e.AbsolutePath, e.ModifiedUnixSeconds)
		items[i] = FileEntryProjection{
			AbsolutePath:         e.AbsolutePath,
			RelativePath:         e.RelativePath,
			FileName:             e.FileName,
			Extension:            e.Extension,
			SizeBytes:            e.SizeBytes,
			ModifiedUnixSeconds:  e.ModifiedUnixSeconds,
			IsBinary:             e.IsBinary,
			VCSStatus:            vcs.StatusFor(e.AbsolutePath),
			FrecencyAccess:       access,
			FrecencyModification: mod,
			FrecencyTotal:        total,
		}
		scores[i] = r.Score
	}

	return SearchResult{
		Items:        items,
		Scores:       scores,
		TotalMatched: totalMatched,
		TotalFiles:   len(snapshot),
		Location:     location,
	}, nil
}
