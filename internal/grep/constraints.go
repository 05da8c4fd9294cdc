package grep

import "strings"

// Constraints are the path/extension filters a raw grep query can embed
// inline (spec §4.7 "Query-embedded constraints"): `*.rs` restricts to an
// extension, a token containing `/` restricts to a path-segment substring,
// and a leading `!` inverts either kind. Constraints are AND-combined.
type Constraints struct {
	ExtensionIncludes []string
	ExtensionExcludes []string
	PathIncludes      []string
	PathExcludes      []string
}

// ParseQuery splits raw into its residual content pattern and the embedded
// path/extension constraints, stripping the constraint tokens out of the
// pattern that actually reaches the per-file matcher.
func ParseQuery(raw string) (string, Constraints) {
	var c Constraints
	var residual []string

	for _, token := range strings.Fields(raw) {
		body := token
		negate := false
		if strings.HasPrefix(body, "!") {
			negate = true
			body = body[1:]
		}

		switch {
		case strings.HasPrefix(body, "*."):
			ext := strings.TrimPrefix(body, "*.")
			if negate {
				c.ExtensionExcludes = append(c.ExtensionExcludes, ext)
			} else {
				c.ExtensionIncludes = append(c.ExtensionIncludes, ext)
			}
		case strings.Contains(body, "/"):
			if negate {
				c.PathExcludes = append(c.PathExcludes, body)
			} else {
				c.PathIncludes = append(c.PathIncludes, body)
			}
		default:
			residual = append(residual, token)
		}
	}

	return strings.Join(residual, " "), c
}

// Eligible reports whether a file satisfies every embedded constraint.
func (c Constraints) Eligible(relativePath, extension string) bool {
	ext := strings.TrimPrefix(extension, ".")

	for _, e := range c.ExtensionIncludes {
		if !strings.EqualFold(ext, strings.TrimPrefix(e, ".")) {
			return false
		}
	}
	for _, e := range c.ExtensionExcludes {
		if strings.EqualFold(ext, strings.TrimPrefix(e, ".")) {
			return false
		}
	}
	for _, p := range c.PathIncludes {
		if !strings.Contains(relativePath, p) {
			return false
		}
	}
	for _, p := range c.PathExcludes {
		if strings.Contains(relativePath, p) {
			return false
		}
	}
	return true
}
