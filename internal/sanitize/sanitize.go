// Package sanitize normalizes untrusted filenames before they are stored or
// used as part of an object-storage key.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxFilenameLen is the maximum length of a sanitized filename.
const maxFilenameLen = 180

// fallbackFilename is returned when sanitization leaves nothing usable.
const fallbackFilename = "file"

// Filename normalizes an untrusted filename: NFKC normalization, whitespace
// trimming, stripping of any path prefix (both separator styles), collapsing
// of internal whitespace runs to a single hyphen, removal of every character
// outside [A-Za-z0-9.-_], and truncation to 180 characters. An empty result
// falls back to "file". Pure function, never fails.
func Filename(name string) string {
	s := norm.NFKC.String(name)
	s = strings.TrimSpace(s)

	// keep only the final path segment
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}

	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
				inSpace = true
			}
			continue
		}
		inSpace = false
		if isAllowed(r) {
			b.WriteRune(r)
		}
	}

	s = b.String()
	if len(s) > maxFilenameLen {
		s = s[:maxFilenameLen]
	}
	if s == "" {
		return fallbackFilename
	}
	return s
}

func isAllowed(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '-' || r == '_':
		return true
	}
	return false
}
