// Package tokens estimates token counts and classifies document sizes to
// select a processing strategy. Counts use the rule of thumb of one token
// per four characters of English text.
package tokens

// CharsPerToken is the fixed character-to-token approximation.
const CharsPerToken = 4

// Category buckets a document by estimated token count.
type Category string

const (
	CategorySmall  Category = "small"
	CategoryMedium Category = "medium"
	CategoryLarge  Category = "large"
)

// Thresholds holds the classification boundaries in tokens.
type Thresholds struct {
	Small  int // below this: small
	Medium int // below this: medium; otherwise large
}

// DefaultThresholds matches the documented 5k/15k boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Small: 5000, Medium: 15000}
}

// Estimate returns the approximate token count of text.
func Estimate(text string) int {
	return len(text) / CharsPerToken
}

// Classify buckets text and returns the estimate it used.
func Classify(text string, th Thresholds) (Category, int) {
	if th.Small <= 0 || th.Medium <= th.Small {
		th = DefaultThresholds()
	}
	n := Estimate(text)
	switch {
	case n < th.Small:
		return CategorySmall, n
	case n < th.Medium:
		return CategoryMedium, n
	default:
		return CategoryLarge, n
	}
}

// SizeMessage renders a human-readable note about the classification,
// reported alongside ingestion stats.
func SizeMessage(c Category) string {
	switch c {
	case CategorySmall:
		return "document size is optimal"
	case CategoryMedium:
		return "document is large and will be chunked for processing"
	default:
		return "very large document, processing may take longer"
	}
}

// Truncate cuts text to approximately maxTokens.
func Truncate(text string, maxTokens int) string {
	maxChars := maxTokens * CharsPerToken
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

// SliceByChars splits text into sequential fixed-size slices. The final slice
// may be shorter; empty text yields no slices.
func SliceByChars(text string, size int) []string {
	if size <= 0 || text == "" {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	var out []string
	for start := 0; start < len(text); start += size {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
	}
	return out
}
