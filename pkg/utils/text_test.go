package utils

import "testing"

func TestPluralize(t *testing.T) {
	tests := []struct {
		count    float64
		expected string
	}{
		{1, "1 point"},
		{-1, "-1 point"},
		{0, "0 points"},
		{2.5, "2.5 points"},
		{3, "3 points"},
	}

	for _, tt := range tests {
		if got := Pluralize(tt.count, "point", "points"); got != tt.expected {
			t.Errorf("Pluralize(%v) = %q, want %q", tt.count, got, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly ten!", 12, "exactly ten!"},
		{"this is a longer sentence", 10, "this is..."},
		{"привет мир", 8, "приве..."},
		{"abc", 2, "ab"},
		{"anything", 0, ""},
	}

	for _, tt := range tests {
		if got := Truncate(tt.input, tt.max); got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
		}
	}
}
