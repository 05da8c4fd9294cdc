package facade

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() { println(\"hello\") }\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# fixture\n"), 0644))
	return dir
}

func newTestHandle(t *testing.T) *Handle {
	t.Helper()
	dir := writeFixture(t)
	h, err := Create(InitOptions{BasePath: dir})
	require.NoError(t, err)
	require.True(t, h.WaitForScan(5000))
	t.Cleanup(func() { _ = h.Destroy() })
	return h
}

func TestCreateAndSearchFindsFixtureFiles(t *testing.T) {
	h := newTestHandle(t)

	res, err := h.Search("main", SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Items)
	found := false
	for _, it := range res.Items {
		if it.RelativePath == "main.go" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSearchExplicitZeroPageSizeReturnsInvalidArgument(t *testing.T) {
	h := newTestHandle(t)

	_, err := h.Search("main", SearchOptions{PageSize: intPtr(0)})
	require.Error(t, err)
}

func TestSearchLocationSuffixIsParsed(t *testing.T) {
	h := newTestHandle(t)

	res, err := h.Search("main.go:3", SearchOptions{})
	require.NoError(t, err)
	require.NotNil(t, res.Location)
	require.NotNil(t, res.Location.Point)
	require.Equal(t, 3, res.Location.Point.Line)
}

func TestLiveGrepFindsLines(t *testing.T) {
	h := newTestHandle(t)

	res, err := h.LiveGrep("hello", GrepOptions{Mode: "literal", PageLimit: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.Equal(t, "main.go", res.Items[0].RelativePath)
}

func TestLiveGrepExplicitZeroMaxFileSizeFiltersEveryFile(t *testing.T) {
	h := newTestHandle(t)

	var zero int64
	res, err := h.LiveGrep("hello", GrepOptions{Mode: "literal", PageLimit: 10, MaxFileSize: &zero})
	require.NoError(t, err)
	require.Equal(t, 0, res.FilteredFileCount)
	require.Empty(t, res.Items)
}

func TestTrackQueryAndHistoricalQuery(t *testing.T) {
	h := newTestHandle(t)

	h.TrackQuery("main", "main.go")
	q, ok := h.HistoricalQuery(0)
	require.True(t, ok)
	require.Equal(t, "main", q)
}

func TestSuggestQueryFindsNearMissInHistory(t *testing.T) {
	h := newTestHandle(t)

	h.TrackQuery("main function", "main.go")
	suggestion, similarity, ok := h.SuggestQuery("man function")
	require.True(t, ok)
	require.Equal(t, "main function", suggestion)
	require.Greater(t, similarity, 0.0)
}

func TestSuggestQueryOnEmptyHistoryReturnsNotOK(t *testing.T) {
	h := newTestHandle(t)

	_, _, ok := h.SuggestQuery("anything")
	require.False(t, ok)
}

func TestTrackAccessIsFireAndForget(t *testing.T) {
	h := newTestHandle(t)
	h.TrackAccess(filepath.Join(h.opts.BasePath, "main.go"))
	// Fire-and-forget: the call itself must return immediately without error.
}

func TestRefreshVCSStatusOnNonRepoReturnsZero(t *testing.T) {
	h := newTestHandle(t)
	count, err := h.RefreshVCSStatus()
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestHealthCheckWithoutHandle(t *testing.T) {
	report := HealthCheck("")
	require.True(t, report.Healthy)
	require.NotEmpty(t, report.Version)
}

func TestHandleHealthCheckReportsGeneration(t *testing.T) {
	h := newTestHandle(t)
	report := h.HealthCheck("")
	require.True(t, report.Healthy)
	require.GreaterOrEqual(t, report.IndexGeneration, uint64(1))
}

func TestDestroyIsIdempotent(t *testing.T) {
	dir := writeFixture(t)
	h, err := Create(InitOptions{BasePath: dir})
	require.NoError(t, err)
	require.True(t, h.WaitForScan(5000))
	require.NoError(t, h.Destroy())
	require.NoError(t, h.Destroy())
}
