package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString removes potentially dangerous characters
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Limit length
	if len(input) > 1000 {
		input = input[:1000]
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeQuestionText cleans imported question text before it reaches the
// database: HTML stripped, whitespace collapsed, length bounded.
func SanitizeQuestionText(input string) string {
	input = SanitizeHTML(input)
	input = strings.Join(strings.Fields(input), " ")
	return SanitizeString(input)
}

// ValidateCategoryName allows only short printable names. Telegram commands
// pass categories as free text, so imports and settings share this check.
func ValidateCategoryName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return false
	}
	return !strings.ContainsAny(name, "\x00\n\r\t")
}
