package grep

import "encoding/base64"

// encodeCursor turns a relative path into the opaque cursor token handed
// back to callers (spec §3 GrepCursor: "opaque to callers").
func encodeCursor(relativePath string) string {
	if relativePath == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(relativePath))
}

// decodeCursor reverses encodeCursor. An unparseable cursor returns ok=false;
// the caller (Search) treats that as fferr.InvalidArgument rather than
// silently resuming from the top, since a malformed cursor usually means the
// caller mangled it rather than that the index simply moved on.
func decodeCursor(cursor string) (string, bool) {
	if cursor == "" {
		return "", false
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", false
	}
	return string(b), true
}
