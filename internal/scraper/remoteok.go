package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"remotejobs/aggregator/internal/ai"
)

const remoteOKURL = "https://remoteok.com/api"

// RemoteOKFetcher pulls listings from the RemoteOK public JSON API.
type RemoteOKFetcher struct {
	client *http.Client
}

func NewRemoteOKFetcher() *RemoteOKFetcher {
	return &RemoteOKFetcher{client: newHTTPClient()}
}

func (f *RemoteOKFetcher) Platform() string { return "remoteok" }

// remoteOKItem mirrors one entry of the RemoteOK response array. The first
// array element is a legal notice, recognisable by its empty position field.
type remoteOKItem struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"`
	SalaryMin   float64  `json:"salary_min"`
	SalaryMax   float64  `json:"salary_max"`
}

// Fetch retrieves the full RemoteOK feed.
func (f *RemoteOKFetcher) Fetch(ctx context.Context) ([]ai.RawListing, error) {
	var items []remoteOKItem
	if err := fetchJSON(ctx, f.client, remoteOKURL, &items); err != nil {
		return nil, fmt.Errorf("remoteok: %w", err)
	}

	listings := make([]ai.RawListing, 0, len(items))
	for _, item := range items {
		if item.Position == "" || item.URL == "" {
			continue // legal-notice element or malformed entry
		}
		listings = append(listings, f.toListing(item))
	}
	return listings, nil
}

func (f *RemoteOKFetcher) toListing(item remoteOKItem) ai.RawListing {
	listing := ai.RawListing{
		Platform:    f.Platform(),
		URL:         item.URL,
		Title:       item.Position,
		Company:     item.Company,
		Location:    item.Location,
		Description: item.Description,
		Tags:        item.Tags,
	}
	if item.SalaryMin > 0 || item.SalaryMax > 0 {
		listing.SalaryText = fmt.Sprintf("$%.0f - $%.0f", item.SalaryMin, item.SalaryMax)
	}
	if t, err := time.Parse(time.RFC3339, item.Date); err == nil {
		t = t.UTC()
		listing.PostedAt = &t
	}
	return listing
}
