package fuzzy

import "github.com/bmatcuk/doublestar/v4"

// IsSpecialFilename reports whether fileName matches any of the configured
// special-basename glob patterns (spec §4.6 / §9's Open Question,
// resolved as a first-class configurable list — see ffconfig.SpecialFilenames).
func IsSpecialFilename(fileName string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, fileName); ok {
			return true
		}
	}
	return false
}
