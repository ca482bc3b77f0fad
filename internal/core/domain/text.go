package domain

import "unicode/utf8"

// RuneLen counts characters rather than bytes
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// TruncateRunes returns at most n characters of s
func TruncateRunes(s string, n int) string {
	if n < 0 {
		return s
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
