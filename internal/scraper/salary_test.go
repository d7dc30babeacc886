package scraper

import "testing"

func TestParseSalaryText(t *testing.T) {
	cases := []struct {
		name string
		text string
		min  float64
		max  float64 // 0 means nil expected
		none bool
	}{
		{name: "k range", text: "$100k - $140k", min: 100000, max: 140000},
		{name: "full range", text: "$95,000 - $120,000 per year", min: 95000, max: 120000},
		{name: "bare range", text: "90000-120000 USD", min: 90000, max: 120000},
		{name: "single k", text: "$95k", min: 95000},
		{name: "single full", text: "up to $150,000", min: 150000},
		{name: "reversed range", text: "$140k - $100k", min: 100000, max: 140000},
		{name: "mixed case k", text: "80K-110K", min: 80000, max: 110000},
		{name: "empty", text: "", none: true},
		{name: "no numbers", text: "competitive salary", none: true},
		{name: "401k noise", text: "Benefits include 401(k) matching", none: true},
		{name: "small numbers ignored", text: "5 days a week, 30 vacation days", none: true},
		{name: "year ignored", text: "Founded in 2019", none: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			min, max := ParseSalaryText(tc.text)

			if tc.none {
				if min != nil || max != nil {
					t.Fatalf("expected no salary, got min=%v max=%v", min, max)
				}
				return
			}

			if min == nil || *min != tc.min {
				t.Fatalf("min = %v, want %v", min, tc.min)
			}
			if tc.max == 0 {
				if max != nil {
					t.Fatalf("max = %v, want nil", *max)
				}
			} else if max == nil || *max != tc.max {
				t.Fatalf("max = %v, want %v", max, tc.max)
			}
		})
	}
}
