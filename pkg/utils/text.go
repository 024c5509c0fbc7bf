package utils

import "strconv"

// Pluralize renders a count with its singular or plural form, e.g.
// Pluralize(3, "point", "points") -> "3 points".
func Pluralize(count float64, singular, plural string) string {
	word := plural
	if count == 1 || count == -1 {
		word = singular
	}
	return strconv.FormatFloat(count, 'f', -1, 64) + " " + word
}

// Truncate shortens s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
