// Package dates finds and normalizes expiration dates in free text.
package dates

import (
	"regexp"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// candidatePatterns are applied independently; matches may overlap.
var candidatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`),       // DD.MM.YYYY
	regexp.MustCompile(`\d{2}\.\d{4}`),              // MM.YYYY
	regexp.MustCompile(`\d{2}[/-]\d{2}[/-]\d{4}`),   // DD/MM/YYYY, DD-MM-YYYY
	regexp.MustCompile(`\d{2}[/-]\d{4}`),            // MM/YYYY, MM-YYYY
	regexp.MustCompile(`\d{4}[/.-]\d{2}[/.-]\d{2}`), // YYYY-MM-DD
	regexp.MustCompile(`(?i)(?:MHD|EXP)[:\s]*(?:` +
		`\d{2}\.\d{2}\.\d{4}|\d{2}\.\d{4}|` +
		`\d{2}[/-]\d{2}[/-]\d{4}|\d{2}[/-]\d{4}|` +
		`\d{4}[/.-]\d{2}[/.-]\d{2})`),
	regexp.MustCompile(`(?i)\d{2}[\s.]+(?:JAN|FEB|MÄR|APR|MAI|JUN|JUL|AUG|SEP|OKT|NOV|DEZ)[\s.]+\d{4}`),
	regexp.MustCompile(`(?i)\d{2}\s+(?:JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)\s+\d{4}`),
}

type match struct {
	start   int
	pattern int
	text    string
}

// ExtractCandidates returns every date-shaped substring of text, in order
// of first occurrence, without duplicates. Candidates are syntactic only:
// feed them to Normalize and expect some to fail.
func ExtractCandidates(text string) []string {
	text = norm.NFC.String(text)

	var found []match
	for i, re := range candidatePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			found = append(found, match{start: loc[0], pattern: i, text: text[loc[0]:loc[1]]})
		}
	}

	sort.SliceStable(found, func(a, b int) bool {
		if found[a].start != found[b].start {
			return found[a].start < found[b].start
		}
		return found[a].pattern < found[b].pattern
	})

	out := []string{}
	seen := map[string]bool{}
	for _, m := range found {
		if seen[m.text] {
			continue
		}
		seen[m.text] = true
		out = append(out, m.text)
	}
	return out
}
