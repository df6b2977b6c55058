package papers

import (
	"regexp"
	"strings"
)

// Caps keep extraction output bounded on reference-heavy papers.
const (
	maxCitations = 15
	maxDOIs      = 10

	// Entries shorter than this are regex noise, not citations.
	minCitationLen = 10
)

var (
	refSection  = regexp.MustCompile(`(?is)(?:references|bibliography|works cited)(.*?)(?:\n\n\n|\z)`)
	refEntry    = regexp.MustCompile(`([A-Z][a-z]+(?:,?\s+[A-Z]\.?\s*)+(?:et al\.)?\s*\(\d{4}\)\.?\s+[^.]+\.)`)
	refNumbered = regexp.MustCompile(`\[\d+\]\s+([A-Z][^.]+\.\s+\(\d{4}\)[^.]+\.)`)
	inTextCite  = regexp.MustCompile(`\(([A-Z][a-z]+(?:\s+et al\.)?,?\s+\d{4})\)`)
	doiPattern  = regexp.MustCompile(`10\.\d{4,9}/[-._;()/:A-Za-z0-9]+`)
)

// ExtractCitations pulls reference entries and in-text citations out of a
// document's full text. Best-effort pattern matching; order follows first
// appearance so output is deterministic.
func ExtractCitations(fullText string) []string {
	var found []string

	if m := refSection.FindStringSubmatch(fullText); m != nil {
		refText := m[1]
		for _, e := range refEntry.FindAllStringSubmatch(refText, -1) {
			found = append(found, e[1])
		}
		for _, e := range refNumbered.FindAllStringSubmatch(refText, -1) {
			found = append(found, e[1])
		}
	}
	for _, e := range inTextCite.FindAllStringSubmatch(fullText, -1) {
		found = append(found, e[1])
	}

	seen := make(map[string]struct{}, len(found))
	out := make([]string, 0, len(found))
	for _, c := range found {
		c = strings.TrimSpace(c)
		if len(c) <= minCitationLen {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) == maxCitations {
			break
		}
	}
	return out
}

// ExtractDOIs returns the unique DOIs found in fullText in order of first
// appearance.
func ExtractDOIs(fullText string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, doi := range doiPattern.FindAllString(fullText, -1) {
		if _, dup := seen[doi]; dup {
			continue
		}
		seen[doi] = struct{}{}
		out = append(out, doi)
		if len(out) == maxDOIs {
			break
		}
	}
	return out
}
