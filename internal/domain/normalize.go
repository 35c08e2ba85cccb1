package domain

import (
	"strings"
)

// NormalizeText prepares a word or phrase for cache keying and comparison:
//   - trims leading/trailing whitespace
//   - converts to lowercase
//   - compresses runs of whitespace into one space
//
// Diacritics, hyphens, and apostrophes are preserved.
func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' {
			if prevSpace {
				continue
			}
			prevSpace = true
			r = ' '
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LettersOnly drops every rune that is not an ASCII letter.
// "1. Dove," becomes "Dove".
func LettersOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
