package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"remotejobs/aggregator/internal/ai"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

// RemotiveFetcher pulls listings from the Remotive public JSON API, one
// request per configured category.
type RemotiveFetcher struct {
	categories []string
	client     *http.Client
}

// NewRemotiveFetcher constructs a fetcher for the given categories. An empty
// list fetches the unfiltered feed.
func NewRemotiveFetcher(categories []string) *RemotiveFetcher {
	return &RemotiveFetcher{
		categories: categories,
		client:     newHTTPClient(),
	}
}

func (f *RemotiveFetcher) Platform() string { return "remotive" }

// remotiveResponse mirrors the top-level Remotive JSON response.
type remotiveResponse struct {
	JobCount int            `json:"job-count"`
	Jobs     []remotiveItem `json:"jobs"`
}

type remotiveItem struct {
	ID          int64    `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	CompanyName string   `json:"company_name"`
	Category    string   `json:"category"`
	JobType     string   `json:"job_type"`
	Publication string   `json:"publication_date"`
	Location    string   `json:"candidate_required_location"`
	Salary      string   `json:"salary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Fetch retrieves every category feed and flattens the results.
func (f *RemotiveFetcher) Fetch(ctx context.Context) ([]ai.RawListing, error) {
	categories := f.categories
	if len(categories) == 0 {
		categories = []string{""}
	}

	var listings []ai.RawListing
	for _, category := range categories {
		endpoint := remotiveBaseURL
		if category != "" {
			endpoint += "?category=" + url.QueryEscape(category)
		}

		var resp remotiveResponse
		if err := fetchJSON(ctx, f.client, endpoint, &resp); err != nil {
			return listings, fmt.Errorf("remotive category %q: %w", category, err)
		}

		for _, item := range resp.Jobs {
			listings = append(listings, f.toListing(item))
		}
	}

	return listings, nil
}

func (f *RemotiveFetcher) toListing(item remotiveItem) ai.RawListing {
	listing := ai.RawListing{
		Platform:    f.Platform(),
		URL:         item.URL,
		Title:       item.Title,
		Company:     item.CompanyName,
		Location:    item.Location,
		Description: item.Description,
		SalaryText:  item.Salary,
		Tags:        item.Tags,
	}
	// Remotive publishes "2025-06-03T08:01:14" without a zone; treat as UTC.
	if t, err := time.Parse("2006-01-02T15:04:05", item.Publication); err == nil {
		t = t.UTC()
		listing.PostedAt = &t
	}
	return listing
}
