package tokens

import (
	"strings"
	"testing"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		text     string
		expected int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcdefg", 1},
		{"abcdefgh", 2},
		{strings.Repeat("x", 4000), 1000},
	}
	for _, tt := range tests {
		if got := Estimate(tt.text); got != tt.expected {
			t.Errorf("Estimate(%q len=%d): got %d, want %d", tt.text[:min(8, len(tt.text))], len(tt.text), got, tt.expected)
		}
	}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		chars    int
		expected Category
	}{
		{"empty", 0, CategorySmall},
		{"just under small", 5000*CharsPerToken - 4, CategorySmall},
		{"at small boundary", 5000 * CharsPerToken, CategoryMedium},
		{"just under medium", 15000*CharsPerToken - 4, CategoryMedium},
		{"at medium boundary", 15000 * CharsPerToken, CategoryLarge},
		{"very large", 50000 * CharsPerToken, CategoryLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("a", tt.chars)
			cat, n := Classify(text, th)
			if cat != tt.expected {
				t.Errorf("got %s, want %s", cat, tt.expected)
			}
			if n != tt.chars/CharsPerToken {
				t.Errorf("estimate: got %d, want %d", n, tt.chars/CharsPerToken)
			}
		})
	}
}

func TestClassifyIdempotent(t *testing.T) {
	text := strings.Repeat("research methodology ", 2000)
	c1, n1 := Classify(text, DefaultThresholds())
	c2, n2 := Classify(text, DefaultThresholds())
	if c1 != c2 || n1 != n2 {
		t.Errorf("classification not stable: (%s,%d) vs (%s,%d)", c1, n1, c2, n2)
	}
}

func TestClassifyInvalidThresholdsFallBack(t *testing.T) {
	cat, _ := Classify("tiny", Thresholds{Small: -1, Medium: -5})
	if cat != CategorySmall {
		t.Errorf("expected small with default thresholds, got %s", cat)
	}
}

func TestTruncate(t *testing.T) {
	text := strings.Repeat("y", 100)
	if got := Truncate(text, 10); len(got) != 40 {
		t.Errorf("expected 40 chars, got %d", len(got))
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("short text should pass through, got %q", got)
	}
}

func TestSliceByChars(t *testing.T) {
	text := strings.Repeat("z", 50000)
	slices := SliceByChars(text, 20000)
	if len(slices) != 3 {
		t.Fatalf("expected 3 slices, got %d", len(slices))
	}
	if len(slices[0]) != 20000 || len(slices[1]) != 20000 || len(slices[2]) != 10000 {
		t.Errorf("unexpected slice lengths: %d %d %d", len(slices[0]), len(slices[1]), len(slices[2]))
	}
	if got := SliceByChars("", 100); got != nil {
		t.Errorf("empty text should yield no slices, got %v", got)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
