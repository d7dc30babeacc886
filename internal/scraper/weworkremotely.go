package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"remotejobs/aggregator/internal/ai"
)

// Default WWR category feeds. The RSS feed is the only machine-readable
// surface the site offers.
var defaultWWRFeeds = []string{
	"https://weworkremotely.com/categories/remote-programming-jobs.rss",
	"https://weworkremotely.com/categories/remote-devops-sysadmin-jobs.rss",
}

// WWRFetcher pulls listings from the We Work Remotely RSS feeds.
type WWRFetcher struct {
	feeds  []string
	client *http.Client
}

// NewWWRFetcher constructs a fetcher. nil feeds selects the defaults.
func NewWWRFetcher(feeds []string) *WWRFetcher {
	if len(feeds) == 0 {
		feeds = defaultWWRFeeds
	}
	return &WWRFetcher{feeds: feeds, client: newHTTPClient()}
}

func (f *WWRFetcher) Platform() string { return "weworkremotely" }

type wwrRSS struct {
	Channel struct {
		Items []wwrItem `xml:"item"`
	} `xml:"channel"`
}

type wwrItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Region      string `xml:"region"`
}

// Fetch retrieves and flattens every configured feed.
func (f *WWRFetcher) Fetch(ctx context.Context) ([]ai.RawListing, error) {
	var listings []ai.RawListing
	for _, feed := range f.feeds {
		body, err := fetchBody(ctx, f.client, feed)
		if err != nil {
			return listings, fmt.Errorf("wwr feed %s: %w", feed, err)
		}

		var rss wwrRSS
		if err := xml.Unmarshal(body, &rss); err != nil {
			return listings, fmt.Errorf("wwr feed %s: xml unmarshal: %w", feed, err)
		}

		for _, item := range rss.Channel.Items {
			listings = append(listings, f.toListing(item))
		}
	}
	return listings, nil
}

func (f *WWRFetcher) toListing(item wwrItem) ai.RawListing {
	// Item titles come as "Company: Job Title".
	company, title := splitWWRTitle(item.Title)

	listing := ai.RawListing{
		Platform:    f.Platform(),
		URL:         item.Link,
		Title:       title,
		Company:     company,
		Location:    item.Region,
		Description: item.Description,
	}
	if t, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
		t = t.UTC()
		listing.PostedAt = &t
	}
	return listing
}

func splitWWRTitle(raw string) (company, title string) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return "", strings.TrimSpace(raw)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
