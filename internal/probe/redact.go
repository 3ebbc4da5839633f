package probe

import "strings"

const (
	keyHead       = 10
	keyTail       = 5
	promptExcerpt = 50
)

// RedactKey shows the first 10 and last 5 characters of a secret.
// Keys too short to hide anything are masked entirely.
func RedactKey(key string) string {
	r := []rune(key)
	if len(r) <= keyHead+keyTail {
		return strings.Repeat("*", len(r))
	}
	return string(r[:keyHead]) + "..." + string(r[len(r)-keyTail:])
}

// Excerpt returns at most the first n characters of s.
func Excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
