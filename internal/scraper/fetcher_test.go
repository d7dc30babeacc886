package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemotiveToListing(t *testing.T) {
	f := NewRemotiveFetcher(nil)
	listing := f.toListing(remotiveItem{
		ID:          123,
		URL:         "https://remotive.com/remote-jobs/software-dev/backend-123",
		Title:       "Backend Engineer",
		CompanyName: "Acme",
		Location:    "Worldwide",
		Salary:      "$100k - $140k",
		Publication: "2025-06-03T08:01:14",
		Tags:        []string{"go", "aws"},
	})

	assert.Equal(t, "remotive", listing.Platform)
	assert.Equal(t, "Backend Engineer", listing.Title)
	assert.Equal(t, "Acme", listing.Company)
	assert.Equal(t, "$100k - $140k", listing.SalaryText)
	require.NotNil(t, listing.PostedAt)
	assert.Equal(t, 2025, listing.PostedAt.Year())
}

func TestRemotiveToListingBadDate(t *testing.T) {
	f := NewRemotiveFetcher(nil)
	listing := f.toListing(remotiveItem{URL: "https://x", Publication: "yesterday"})
	assert.Nil(t, listing.PostedAt)
}

func TestSplitWWRTitle(t *testing.T) {
	cases := []struct {
		in, company, title string
	}{
		{"Acme: Senior Backend Engineer", "Acme", "Senior Backend Engineer"},
		{"Acme Corp:  Spaced  Title ", "Acme Corp", "Spaced  Title"},
		{"No separator here", "", "No separator here"},
	}
	for _, tc := range cases {
		company, title := splitWWRTitle(tc.in)
		assert.Equal(t, tc.company, company)
		assert.Equal(t, tc.title, title)
	}
}

func TestWWRToListing(t *testing.T) {
	f := NewWWRFetcher(nil)
	listing := f.toListing(wwrItem{
		Title:   "Acme: Platform Engineer",
		Link:    "https://weworkremotely.com/remote-jobs/acme-platform-engineer",
		PubDate: "Tue, 03 Jun 2025 08:01:14 +0000",
		Region:  "Anywhere in the World",
	})

	assert.Equal(t, "weworkremotely", listing.Platform)
	assert.Equal(t, "Acme", listing.Company)
	assert.Equal(t, "Platform Engineer", listing.Title)
	assert.Equal(t, "Anywhere in the World", listing.Location)
	require.NotNil(t, listing.PostedAt)
}

func TestRemoteOKToListingBuildsSalaryText(t *testing.T) {
	f := NewRemoteOKFetcher()
	listing := f.toListing(remoteOKItem{
		URL:       "https://remoteok.com/remote-jobs/1",
		Position:  "Backend Engineer",
		Company:   "Acme",
		SalaryMin: 90000,
		SalaryMax: 120000,
		Date:      "2025-06-03T08:01:14+00:00",
	})

	assert.Equal(t, "remoteok", listing.Platform)
	assert.Equal(t, "Backend Engineer", listing.Title)
	assert.Equal(t, "$90000 - $120000", listing.SalaryText)
	require.NotNil(t, listing.PostedAt)

	min, max := ParseSalaryText(listing.SalaryText)
	require.NotNil(t, min)
	require.NotNil(t, max)
	assert.Equal(t, 90000.0, *min)
	assert.Equal(t, 120000.0, *max)
}

func TestRemoteOKToListingNoSalary(t *testing.T) {
	f := NewRemoteOKFetcher()
	listing := f.toListing(remoteOKItem{URL: "https://x", Position: "Engineer"})
	assert.Empty(t, listing.SalaryText)
}
