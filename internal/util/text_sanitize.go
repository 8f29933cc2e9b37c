package util

import "strings"

// SanitizeText strips bytes Postgres text columns reject (NUL from some PDF
// extractors) and non-printing controls other than common whitespace.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case r < 0x20:
			return -1
		default:
			return r
		}
	}, s)
	return strings.TrimSpace(s)
}
