package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

// Plausible annual salary bounds after k-expansion. Numbers outside this
// window are treated as noise (years, headcounts, "401(k)" leftovers).
const (
	minPlausibleSalary = 10_000
	maxPlausibleSalary = 2_000_000
)

var salaryNumberPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*([kK])?`)

// ParseSalaryText extracts annual salary bounds from free text such as
// "$100k - $140k", "$95,000" or "90000-120000 USD". The first plausible
// number becomes the lower bound; a second, larger one becomes the upper
// bound. Both are nil when nothing plausible is found.
func ParseSalaryText(text string) (min, max *float64) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	// "401(k)" and "401k" benefits mentions are the classic false positive.
	cleaned := strings.NewReplacer("401(k)", "", "401k", "", "401K", "").Replace(text)

	var values []float64
	for _, m := range salaryNumberPattern.FindAllStringSubmatch(cleaned, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			v *= 1000
		}
		if v < minPlausibleSalary || v > maxPlausibleSalary {
			continue
		}
		values = append(values, v)
		if len(values) == 2 {
			break
		}
	}

	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		return &values[0], nil
	}
	if values[1] < values[0] {
		values[0], values[1] = values[1], values[0]
	}
	return &values[0], &values[1]
}
