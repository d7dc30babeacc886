package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// seenTTL is how long a scraped URL stays marked before it may be revisited.
const seenTTL = 30 * 24 * time.Hour

// ScrapeState tracks per-platform scrape progress in Redis: the timestamp of
// the last successful run (for the freshness filter) and which source URLs
// have already been seen across runs.
type ScrapeState struct {
	rdb *redis.Client
}

// NewScrapeState wraps an existing Redis client.
func NewScrapeState(rdb *redis.Client) *ScrapeState {
	return &ScrapeState{rdb: rdb}
}

func lastScrapeKey(platform string) string { return "scrape:last:" + platform }
func seenKey(url string) string            { return "scrape:seen:" + url }

// LastScrape returns the recorded time of the last successful scrape for a
// platform. ok is false when no run has been recorded yet.
func (s *ScrapeState) LastScrape(ctx context.Context, platform string) (time.Time, bool, error) {
	val, err := s.rdb.Get(ctx, lastScrapeKey(platform)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get last scrape for %s: %w", platform, err)
	}

	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last scrape for %s: %w", platform, err)
	}
	return t, true, nil
}

// SetLastScrape records the time of a successful scrape run.
func (s *ScrapeState) SetLastScrape(ctx context.Context, platform string, t time.Time) error {
	if err := s.rdb.Set(ctx, lastScrapeKey(platform), t.UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("set last scrape for %s: %w", platform, err)
	}
	return nil
}

// Seen reports whether a URL has been processed in a previous run.
func (s *ScrapeState) Seen(ctx context.Context, url string) (bool, error) {
	n, err := s.rdb.Exists(ctx, seenKey(url)).Result()
	if err != nil {
		return false, fmt.Errorf("check seen %s: %w", url, err)
	}
	return n > 0, nil
}

// MarkSeen records URLs as processed. Marks expire after seenTTL so a
// long-dead posting can be re-ingested if it ever reappears.
func (s *ScrapeState) MarkSeen(ctx context.Context, urls []string) error {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.rdb.Set(ctx, seenKey(url), 1, seenTTL).Err(); err != nil {
			return fmt.Errorf("mark seen %s: %w", url, err)
		}
	}
	return nil
}
