package fuzzy

import (
	"github.com/cespare/xxhash/v2"
	"github.com/hbollon/go-edlib"
)

// SuggestQuery finds the historical query most similar to typo, using the
// same Jaro-Winkler signal the teacher uses for symbol-name suggestions
// (internal/semantic/fuzzy_matcher.go). It is the near-miss fallback spec
// §10 describes for historical_query lookups that don't land on an exact
// normalized match.
func SuggestQuery(typo string, history []string) (string, float64) {
	var best string
	var bestScore float64
	for _, candidate := range history {
		score, err := edlib.StringsSimilarity(typo, candidate, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = float64(score)
			best = candidate
		}
	}
	return best, bestScore
}

// segmentCache memoizes path-depth lookups (used for DistancePenalty) keyed
// by a fast non-cryptographic hash of the relative path, avoiding a
// strings.Count rescan of the same path within one Score call. Score builds
// a fresh cache on every call, so nothing is kept between calls.
type segmentCache struct {
	m map[uint64]int
}

func newSegmentCache() *segmentCache {
	return &segmentCache{m: make(map[uint64]int)}
}

func (c *segmentCache) segments(relativePath string, count func(string) int) int {
	key := xxhash.Sum64String(relativePath)
	if n, ok := c.m[key]; ok {
		return n
	}
	n := count(relativePath)
	c.m[key] = n
	return n
}
