package queryhistory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/fff/internal/kvstore"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "tests go", Normalize("  Tests   GO  "))
	assert.Equal(t, "", Normalize("   "))
}

func TestTrackCompletionIncrementsComboByTwo(t *testing.T) {
	tr, err := New(nil, nil, 10)
	require.NoError(t, err)

	tr.TrackCompletion("tests", "/abs/tests/t.rs")
	tr.TrackCompletion("tests", "/abs/tests/t.rs")

	assert.EqualValues(t, 2, tr.ComboCount("tests", "/abs/tests/t.rs"))
}

func TestHistoryDeduplicatesAgainstMostRecent(t *testing.T) {
	tr, err := New(nil, nil, 10)
	require.NoError(t, err)

	tr.TrackCompletion("tests", "/abs/a")
	tr.TrackCompletion("tests", "/abs/a")
	tr.TrackCompletion("main", "/abs/b")

	top, ok := tr.HistoricalQuery(0)
	require.True(t, ok)
	assert.Equal(t, "main", top)

	prev, ok := tr.HistoricalQuery(1)
	require.True(t, ok)
	assert.Equal(t, "tests", prev)

	_, ok = tr.HistoricalQuery(2)
	assert.False(t, ok)
}

func TestHistoryEvictsOldestWithoutPerturbingOffsets(t *testing.T) {
	tr, err := New(nil, nil, 2)
	require.NoError(t, err)

	tr.TrackCompletion("q1", "/a")
	tr.TrackCompletion("q2", "/a")
	tr.TrackCompletion("q3", "/a")

	top, ok := tr.HistoricalQuery(0)
	require.True(t, ok)
	assert.Equal(t, "q3", top)

	prev, ok := tr.HistoricalQuery(1)
	require.True(t, ok)
	assert.Equal(t, "q2", prev)

	_, ok = tr.HistoricalQuery(2)
	assert.False(t, ok, "q1 must have been evicted")
}

func TestPersistenceSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	store, err := kvstore.Open(filepath.Join(dir, "history.db"), false)
	require.NoError(t, err)
	defer store.Close()

	tr, err := New(store, nil, 10)
	require.NoError(t, err)
	tr.TrackCompletion("tests", "/abs/t.rs")
	tr.TrackCompletion("tests", "/abs/t.rs")

	reloaded, err := New(store, nil, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, reloaded.ComboCount("tests", "/abs/t.rs"))

	top, ok := reloaded.HistoricalQuery(0)
	require.True(t, ok)
	assert.Equal(t, "tests", top)
}
