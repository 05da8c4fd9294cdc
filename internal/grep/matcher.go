package grep

import (
	"context"
	"regexp"
	"strings"

	"github.com/coregx/coregex"
	"github.com/standardbeagle/fff/internal/ffconfig"
	"github.com/standardbeagle/fff/internal/fuzzy"
)

// Mode selects the per-line matcher (spec §4.7).
type Mode string

const (
	ModeLiteral Mode = "literal"
	ModeRegex   Mode = "regex"
	ModeFuzzy   Mode = "fuzzy"
)

// lineMatch is one matched line before it is projected into a public Match.
type lineMatch struct {
	lineNumber  int
	col         int
	byteOffset  int64
	lineContent string
	ranges      [][2]int
	fuzzyScore  *int
}

// compiledMatcher is built once per Search call and reused across every
// eligible file, so a regex is compiled exactly once (spec: "compile once
// per call").
type compiledMatcher struct {
	mode          Mode
	pattern       string
	caseSensitive bool
	re            *coregex.Regex
	fallbackError string
}

func newCompiledMatcher(mode Mode, pattern string, smartCase bool) compiledMatcher {
	caseSensitive := true
	if smartCase {
		caseSensitive = fuzzy.IsSmartCaseSensitive(pattern)
	}

	cm := compiledMatcher{mode: mode, pattern: pattern, caseSensitive: caseSensitive}

	switch mode {
	case ModeFuzzy:
		return cm
	case ModeRegex:
		src := pattern
		if !caseSensitive {
			src = "(?i)" + src
		}
		re, err := coregex.Compile(src)
		if err != nil {
			// Fall back to literal matching on the raw pattern and surface
			// the compile error via regex_fallback_error.
			cm.fallbackError = err.Error()
			cm.mode = ModeLiteral
			cm.re = compileLiteral(pattern, caseSensitive)
			return cm
		}
		cm.re = re
		return cm
	default: // ModeLiteral
		cm.re = compileLiteral(pattern, caseSensitive)
		return cm
	}
}

func compileLiteral(pattern string, caseSensitive bool) *coregex.Regex {
	needle := pattern
	if !caseSensitive {
		needle = strings.ToLower(needle)
	}
	re, err := coregex.Compile(regexp.QuoteMeta(needle))
	if err != nil {
		return nil
	}
	return re
}

// matchLines scans body line by line, returning every line that matches,
// honouring maxMatches and a cooperative cancellation check at each line
// boundary (spec: "polled at per-file boundaries and between inner SIMD
// chunks").
func (cm compiledMatcher) matchLines(ctx context.Context, body []byte, maxMatches int, lineContentLimit int) []lineMatch {
	var out []lineMatch
	var byteOffset int64
	lineNumber := 0

	for len(body) > 0 {
		if ctx.Err() != nil {
			break
		}

		nl := indexByte(body, '\n')
		var line []byte
		if nl < 0 {
			line = body
			body = nil
		} else {
			line = body[:nl]
			body = body[nl+1:]
		}
		lineNumber++

		if len(out) >= maxMatches {
			byteOffset += int64(len(line)) + 1
			continue
		}

		if lm, ok := cm.matchOneLine(line, lineNumber, byteOffset, lineContentLimit); ok {
			out = append(out, lm)
		}

		byteOffset += int64(len(line)) + 1
	}

	return out
}

func (cm compiledMatcher) matchOneLine(line []byte, lineNumber int, byteOffset int64, lineContentLimit int) (lineMatch, bool) {
	if cm.mode == ModeFuzzy {
		if cm.pattern == "" {
			return lineMatch{}, false
		}
		res, ok := fuzzy.Match(cm.pattern, string(line), cm.caseSensitive)
		if !ok {
			return lineMatch{}, false
		}
		score := res.Score
		content, ranges := truncateLine(string(line), res.Ranges, lineContentLimit)
		col := 0
		if len(ranges) > 0 {
			col = ranges[0][0]
		}
		return lineMatch{
			lineNumber:  lineNumber,
			col:         col,
			byteOffset:  byteOffset,
			lineContent: content,
			ranges:      ranges,
			fuzzyScore:  &score,
		}, true
	}

	if cm.re == nil {
		return lineMatch{}, false
	}

	haystack := line
	if !cm.caseSensitive {
		haystack = []byte(strings.ToLower(string(line)))
	}

	var ranges [][2]int
	pos := 0
	for pos <= len(haystack) {
		idx := cm.re.FindIndex(haystack[pos:])
		if idx == nil {
			break
		}
		start, end := idx[0]+pos, idx[1]+pos
		ranges = append(ranges, [2]int{start, end})
		if end == start {
			pos = end + 1
		} else {
			pos = end
		}
	}

	if len(ranges) == 0 {
		return lineMatch{}, false
	}

	content, clipped := truncateLine(string(line), ranges, lineContentLimit)
	return lineMatch{
		lineNumber:  lineNumber,
		col:         clipped[0][0],
		byteOffset:  byteOffset,
		lineContent: content,
		ranges:      clipped,
	}, true
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// truncateLine clips line to lineContentLimit bytes on a UTF-8 boundary and
// clips match ranges to the truncated content, dropping ranges that fall
// entirely outside it.
func truncateLine(line string, ranges [][2]int, limit int) (string, [][2]int) {
	if limit <= 0 {
		limit = ffconfig.LineContentSoftLimit
	}
	if len(line) <= limit {
		return line, ranges
	}

	cut := limit
	for cut > 0 && isUTF8Continuation(line[cut]) {
		cut--
	}
	truncated := line[:cut]

	var clipped [][2]int
	for _, r := range ranges {
		if r[0] >= cut {
			continue
		}
		end := r[1]
		if end > cut {
			end = cut
		}
		clipped = append(clipped, [2]int{r[0], end})
	}
	return truncated, clipped
}

func isUTF8Continuation(b byte) bool {
	return b&0xC0 == 0x80
}
