package fuzzy

import (
	"sort"
	"strings"

	"github.com/standardbeagle/fff/internal/ffconfig"
	"github.com/standardbeagle/fff/internal/fferr"
)

// ScoreBreakdown mirrors spec §3's ScoreBreakdown exactly; Total is the
// sum of every positively-signed component minus every penalty.
type ScoreBreakdown struct {
	Total                 int
	BaseScore             int
	FilenameBonus         int
	SpecialFilenameBonus  int
	FrecencyBoost         int
	DistancePenalty       int
	CurrentFilePenalty    int
	ComboMatchBoost       int
	ExactMatch            bool
	MatchType             string
	Ranges                [][2]int // byte ranges within RelativePath, for highlighting
}

// Candidate is everything the scorer needs about one file, pre-joined by
// the caller (the Facade) from the File Index, Frecency Tracker, and
// Query-History Tracker. Keeping fuzzy decoupled from those packages
// avoids an import cycle and keeps the matcher independently testable.
type Candidate struct {
	RelativePath  string
	FileName      string
	FrecencyTotal int64
	ComboCount    uint64
}

// Result pairs a candidate's path with its score.
type Result struct {
	RelativePath string
	Score        ScoreBreakdown
}

// Options configures one Score call (spec §4.6's input parameters).
//
// PageSize is a pointer so Score can tell "the caller didn't set it" (nil,
// apply the default) apart from "the caller explicitly asked for zero"
// (spec.md §8: invalid_argument) — a plain int can't carry that distinction
// since its zero value means both things at once.
type Options struct {
	CurrentFile          string
	ComboBoostMultiplier int
	MinComboCount        int
	PageIndex            int
	PageSize             *int
	SpecialFilenames     []string

	FrecencyCeiling            int
	FilenameBonusValue         int
	SpecialFilenameBonusValue  int
	DistancePenaltyPerSegment  int
	CurrentFilePenaltyValue    int
}

// intPtr is the constructor callers use to set an explicit PageSize; left
// nil, Options.PageSize means "use the default".
func intPtr(n int) *int { return &n }

// DefaultOptions returns the Facade's documented SearchOptions defaults.
func DefaultOptions() Options {
	return Options{
		ComboBoostMultiplier:      ffconfig.DefaultComboBoostMultiplier,
		MinComboCount:             ffconfig.DefaultMinComboCount,
		PageIndex:                 0,
		PageSize:                  nil,
		SpecialFilenames:          ffconfig.SpecialFilenames,
		FrecencyCeiling:           ffconfig.FrecencyCeiling,
		FilenameBonusValue:        50,
		SpecialFilenameBonusValue: 30,
		DistancePenaltyPerSegment: 5,
		CurrentFilePenaltyValue:   1000,
	}
}

// Score evaluates every candidate against query (after location-suffix
// stripping is already done by the caller) and returns the requested page
// in descending-Total order with deterministic (relative_path ascending)
// tie-break, plus the total matched count.
func Score(query string, candidates []Candidate, opts Options) ([]Result, int, error) {
	pageSize := ffconfig.DefaultSearchPageSize
	if opts.PageSize != nil {
		switch {
		case *opts.PageSize < 0:
			return nil, 0, fferr.New(fferr.InvalidArgument, "fuzzy: page_size must be >= 0")
		case *opts.PageSize == 0:
			return nil, 0, fferr.New(fferr.InvalidArgument, "fuzzy: page_size must be > 0")
		default:
			pageSize = *opts.PageSize
		}
	}
	if len(query) > ffconfig.MaxQueryLength {
		query = query[:ffconfig.MaxQueryLength]
	}
	if opts.SpecialFilenames == nil {
		opts.SpecialFilenames = ffconfig.SpecialFilenames
	}

	caseSensitive := IsSmartCaseSensitive(query)
	segCache := newSegmentCache()

	var matched []Result
	for _, c := range candidates {
		sb, ok := scoreOne(query, c, opts, caseSensitive, segCache)
		if !ok {
			continue
		}
		matched = append(matched, Result{RelativePath: c.RelativePath, Score: sb})
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Score.Total != matched[j].Score.Total {
			return matched[i].Score.Total > matched[j].Score.Total
		}
		return matched[i].RelativePath < matched[j].RelativePath
	})

	totalMatched := len(matched)

	start := opts.PageIndex * pageSize
	if start >= len(matched) {
		return nil, totalMatched, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], totalMatched, nil
}

func scoreOne(query string, c Candidate, opts Options, caseSensitive bool, segCache *segmentCache) (ScoreBreakdown, bool) {
	var sb ScoreBreakdown
	sb.MatchType = "fuzzy"

	if query == "" {
		sb.MatchType = "empty"
	} else {
		m, ok := Match(query, c.RelativePath, caseSensitive)
		if !ok {
			return ScoreBreakdown{}, false
		}
		sb.BaseScore = m.Score
		sb.Ranges = m.Ranges

		needle := query
		haystack := c.FileName
		if !caseSensitive {
			needle = strings.ToLower(needle)
			haystack = strings.ToLower(haystack)
		}
		if strings.Contains(haystack, needle) {
			sb.FilenameBonus = opts.FilenameBonusValue
			sb.ExactMatch = true
			sb.MatchType = "exact"
		}
	}

	if IsSpecialFilename(c.FileName, opts.SpecialFilenames) {
		sb.SpecialFilenameBonus = opts.SpecialFilenameBonusValue
	}

	frecencyBoost := int(c.FrecencyTotal)
	if opts.FrecencyCeiling > 0 && frecencyBoost > opts.FrecencyCeiling {
		frecencyBoost = opts.FrecencyCeiling
	}
	sb.FrecencyBoost = frecencyBoost

	if opts.MinComboCount >= 0 && c.ComboCount >= uint64(opts.MinComboCount) {
		sb.ComboMatchBoost = int(c.ComboCount) * opts.ComboBoostMultiplier
	}

	segments := segCache.segments(c.RelativePath, func(p string) int { return strings.Count(p, "/") })
	sb.DistancePenalty = segments * opts.DistancePenaltyPerSegment

	if opts.CurrentFile != "" && c.RelativePath == opts.CurrentFile {
		sb.CurrentFilePenalty = opts.CurrentFilePenaltyValue
	}

	sb.Total = sb.BaseScore + sb.FilenameBonus + sb.SpecialFilenameBonus +
		sb.FrecencyBoost + sb.ComboMatchBoost - sb.DistancePenalty - sb.CurrentFilePenalty

	return sb, true
}
