package utils

import "strings"

// SanitizeFileName turns a location display name into a safe file name:
// case-folded, with every run of non-alphanumeric characters collapsed to a
// single underscore.
func SanitizeFileName(name string) string {
	var b strings.Builder
	lastWasSep := true

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasSep = false
		default:
			if !lastWasSep {
				b.WriteByte('_')
				lastWasSep = true
			}
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "unknown"
	}
	return out
}
