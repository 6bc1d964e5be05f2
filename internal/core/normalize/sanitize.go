package normalize

import (
	"strings"
	"unicode/utf8"
)

func unwanted(r rune) bool {
	switch {
	case r == '\n' || r == '\r' || r == '\t':
		return false
	case r < 0x20 || r == 0x7F:
		return true
	case r >= 0x80 && r <= 0x9F:
		return true
	}
	return false
}

// Sanitize drops NUL and other ASCII controls (tab and newlines survive), DEL,
// C1 controls and invalid UTF-8 bytes. Comment payloads from the XML list
// endpoint carry stray NULs. s is returned as is when nothing needs cleaning
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	if utf8.ValidString(s) && strings.IndexFunc(s, unwanted) < 0 {
		return s
	}
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		if unwanted(r) {
			return -1
		}
		return r
	}, s)
}
