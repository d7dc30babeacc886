package scraper

import "strings"

// defaultRedFlags are scam and junk markers that disqualify a listing before
// it ever reaches the AI stage. Matching here is deliberately crude; the
// validator catches the subtle cases.
var defaultRedFlags = []string{
	"mlm",
	"multi-level marketing",
	"commission only",
	"unpaid internship",
	"pay to apply",
	"registration fee",
	"pyramid",
}

// ContainsRedFlag reports whether any of the given terms occurs in the
// listing's title, company or description. Matching is a case-insensitive
// substring scan over the concatenated fields; blank terms are ignored.
func ContainsRedFlag(title, company, description string, redFlags []string) bool {
	haystack := strings.ToLower(strings.Join([]string{title, company, description}, " "))
	for _, term := range redFlags {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
