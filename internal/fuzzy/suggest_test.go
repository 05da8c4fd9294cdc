package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestQueryPicksClosestHistoricalEntry(t *testing.T) {
	history := []string{"main handler", "parse config", "index scanner"}
	best, score := SuggestQuery("main handlr", history)
	assert.Equal(t, "main handler", best)
	assert.Greater(t, score, 0.0)
}

func TestSuggestQueryEmptyHistoryReturnsNothing(t *testing.T) {
	best, score := SuggestQuery("anything", nil)
	assert.Equal(t, "", best)
	assert.Zero(t, score)
}

func TestSegmentCacheMemoizesCount(t *testing.T) {
	c := newSegmentCache()
	calls := 0
	counter := func(p string) int {
		calls++
		return 3
	}
	assert.Equal(t, 3, c.segments("a/b/c.go", counter))
	assert.Equal(t, 3, c.segments("a/b/c.go", counter))
	assert.Equal(t, 1, calls)
}
