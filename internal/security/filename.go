// Package security holds helpers for turning untrusted names into paths.
package security

import "strings"

// maxFilenameLen bounds sanitised names.
const maxFilenameLen = 128

// SanitizeFilename maps an arbitrary replay source or session identifier to
// a single safe path element. Runs of characters outside [A-Za-z0-9._-] become
// one underscore, leading and trailing dots and underscores are dropped, and
// the result never names a parent directory.
func SanitizeFilename(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-'
		if !ok {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte('_')
		}
		pending = false
		b.WriteRune(r)
		if b.Len() >= maxFilenameLen {
			break
		}
	}
	out := strings.Trim(b.String(), "._")
	if len(out) > maxFilenameLen {
		out = out[:maxFilenameLen]
	}
	if out == "" {
		return "unknown"
	}
	return out
}
