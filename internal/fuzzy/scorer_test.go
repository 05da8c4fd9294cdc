package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/fff/internal/fferr"
)

func TestScoreRanksExactFilenameMatchAboveScattered(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "src/main.rs", FileName: "main.rs"},
		{RelativePath: "src/m_a_i_n_helper.rs", FileName: "m_a_i_n_helper.rs"},
	}
	results, total, err := Score("main", candidates, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, results, 2)
	assert.Equal(t, "src/main.rs", results[0].RelativePath)
	assert.True(t, results[0].Score.ExactMatch)
	assert.Equal(t, "exact", results[0].Score.MatchType)
}

func TestScoreEmptyQueryMarksEmptyMatchType(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "a.go", FileName: "a.go", FrecencyTotal: 10},
		{RelativePath: "b.go", FileName: "b.go", FrecencyTotal: 50},
	}
	results, total, err := Score("", candidates, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "empty", r.Score.MatchType)
		assert.Zero(t, r.Score.BaseScore)
	}
	// Frecency-sorted descending since everything else is equal.
	assert.Equal(t, "b.go", results[0].RelativePath)
	assert.Equal(t, "a.go", results[1].RelativePath)
}

func TestScoreDropsNonMatchesForNonEmptyQuery(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "main.rs", FileName: "main.rs"},
		{RelativePath: "zzz.txt", FileName: "zzz.txt"},
	}
	results, total, err := Score("main", candidates, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "main.rs", results[0].RelativePath)
}

func TestScoreTieBreaksByAscendingRelativePath(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "z/main.rs", FileName: "main.rs"},
		{RelativePath: "a/main.rs", FileName: "main.rs"},
	}
	results, _, err := Score("main", candidates, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score.Total, results[1].Score.Total)
	assert.Equal(t, "a/main.rs", results[0].RelativePath)
	assert.Equal(t, "z/main.rs", results[1].RelativePath)
}

func TestScorePaginationBeyondTotalReturnsEmpty(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "a.go", FileName: "a.go"},
	}
	opts := DefaultOptions()
	opts.PageIndex = 5
	opts.PageSize = intPtr(10)
	results, total, err := Score("a", candidates, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, results)
}

func TestScorePageSizeZeroReturnsInvalidArgument(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "a.go", FileName: "a.go"},
		{RelativePath: "b.go", FileName: "b.go"},
	}
	opts := DefaultOptions()
	opts.PageSize = intPtr(0)
	results, _, err := Score("", candidates, opts)
	require.Error(t, err)
	assert.True(t, fferr.Is(err, fferr.InvalidArgument))
	assert.Empty(t, results)
}

func TestScoreRejectsNegativePageSize(t *testing.T) {
	opts := DefaultOptions()
	opts.PageSize = intPtr(-1)
	_, _, err := Score("x", nil, opts)
	require.Error(t, err)
	assert.True(t, fferr.Is(err, fferr.InvalidArgument))
}

func TestScoreCurrentFilePenaltyDemotesCurrentFile(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "main.rs", FileName: "main.rs"},
		{RelativePath: "main_other.rs", FileName: "main_other.rs"},
	}
	opts := DefaultOptions()
	opts.CurrentFile = "main.rs"
	results, _, err := Score("main", candidates, opts)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "main_other.rs", results[0].RelativePath)
	assert.Greater(t, opts.CurrentFilePenaltyValue, 0)
}

func TestScoreSpecialFilenameBonusApplied(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "README.md", FileName: "README.md"},
	}
	results, _, err := Score("READM", candidates, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 30, results[0].Score.SpecialFilenameBonus)
}

func TestScoreComboBoostHonoursLiteralThreshold(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "a.go", FileName: "a.go", ComboCount: 2},
		{RelativePath: "b.go", FileName: "b.go", ComboCount: 3},
	}
	opts := DefaultOptions()
	opts.MinComboCount = 3
	opts.ComboBoostMultiplier = 100

	results, _, err := Score("", candidates, opts)
	require.NoError(t, err)

	var a, b ScoreBreakdown
	for _, r := range results {
		if r.RelativePath == "a.go" {
			a = r.Score
		}
		if r.RelativePath == "b.go" {
			b = r.Score
		}
	}
	assert.Zero(t, a.ComboMatchBoost, "combo count below min_combo_count must not be boosted")
	assert.Equal(t, 300, b.ComboMatchBoost)
}

func TestScoreComboBoostZeroMultiplierDisablesBoost(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "a.go", FileName: "a.go", ComboCount: 10},
	}
	opts := DefaultOptions()
	opts.MinComboCount = 0
	opts.ComboBoostMultiplier = 0

	results, _, err := Score("", candidates, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].Score.ComboMatchBoost)
}

func TestScoreDistancePenaltyGrowsWithPathDepth(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "main.rs", FileName: "main.rs"},
		{RelativePath: "a/b/c/main.rs", FileName: "main.rs"},
	}
	results, _, err := Score("main", candidates, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	var shallow, deep ScoreBreakdown
	for _, r := range results {
		if r.RelativePath == "main.rs" {
			shallow = r.Score
		}
		if r.RelativePath == "a/b/c/main.rs" {
			deep = r.Score
		}
	}
	assert.Zero(t, shallow.DistancePenalty)
	assert.Equal(t, 15, deep.DistancePenalty)
}

func TestScoreFrecencyBoostClampedToCeiling(t *testing.T) {
	candidates := []Candidate{
		{RelativePath: "a.go", FileName: "a.go", FrecencyTotal: 999999},
	}
	opts := DefaultOptions()
	opts.FrecencyCeiling = 100
	results, _, err := Score("", candidates, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 100, results[0].Score.FrecencyBoost)
}
