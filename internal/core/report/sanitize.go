package report

import (
	"strings"
	"unicode"
)

// Sanitize keeps only characters the report's core fonts can encode (Latin-1
// printable range plus newline and tab). Everything else is dropped.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if supported(r) {
			return r
		}
		return -1
	}, s)
}

func supported(r rune) bool {
	switch {
	case r == '\n', r == '\t':
		return true
	case r >= 0x20 && r <= 0x7e:
		return true
	case r >= 0xa0 && r <= 0xff:
		return true
	default:
		return false
	}
}

func formatQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	runes := []rune(q)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
