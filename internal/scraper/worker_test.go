package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotejobs/aggregator/internal/ai"
	"remotejobs/aggregator/internal/model"
)

// ── fakes ──────────────────────────────────────────────────────────────────

type fakeFetcher struct {
	platform string
	listings []ai.RawListing
	err      error
}

func (f *fakeFetcher) Platform() string { return f.platform }

func (f *fakeFetcher) Fetch(ctx context.Context) ([]ai.RawListing, error) {
	return f.listings, f.err
}

// fakeAI extracts and validates by rule: URLs in extractFails fail extraction,
// URLs in invalid get a negative verdict, everything else passes.
type fakeAI struct {
	extractFails map[string]bool
	invalid      map[string]bool
	calls        int
}

func (f *fakeAI) ExtractJob(ctx context.Context, listing ai.RawListing) (*ai.Extraction, error) {
	f.calls++
	if f.extractFails[listing.URL] {
		return nil, fmt.Errorf("%w: gibberish", ai.ErrMalformedResponse)
	}
	return &ai.Extraction{
		Title:   listing.Title,
		Company: listing.Company,
		URL:     listing.URL,
		Salary:  listing.SalaryText,
		SkillsAnalysis: ai.SkillsBreakdown{
			TechnicalSkills: []string{"Go"},
			ExperienceLevel: "senior",
			Summary:         "A job.",
		},
	}, nil
}

func (f *fakeAI) ValidateJob(ctx context.Context, extraction *ai.Extraction) (*ai.Validation, error) {
	if f.invalid[extraction.URL] {
		return &ai.Validation{IsValid: false, Reasoning: "not a real job"}, nil
	}
	return &ai.Validation{IsValid: true, RemoteType: "remote", JobTypeCategory: "engineering", Confidence: 0.9}, nil
}

type fakeJobStore struct {
	byURL     map[string]*model.JobRecord
	insertErr error
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{byURL: make(map[string]*model.JobRecord)}
}

func (s *fakeJobStore) InsertJob(ctx context.Context, rec *model.JobRecord) (bool, error) {
	if s.insertErr != nil {
		return false, s.insertErr
	}
	if _, exists := s.byURL[rec.SourceURL]; exists {
		return false, nil
	}
	s.byURL[rec.SourceURL] = rec
	return true, nil
}

type fakeState struct {
	seen       map[string]bool
	lastScrape map[string]time.Time
	seenErr    error
}

func newFakeState() *fakeState {
	return &fakeState{seen: make(map[string]bool), lastScrape: make(map[string]time.Time)}
}

func (s *fakeState) LastScrape(ctx context.Context, platform string) (time.Time, bool, error) {
	t, ok := s.lastScrape[platform]
	return t, ok, nil
}

func (s *fakeState) SetLastScrape(ctx context.Context, platform string, t time.Time) error {
	s.lastScrape[platform] = t
	return nil
}

func (s *fakeState) Seen(ctx context.Context, url string) (bool, error) {
	if s.seenErr != nil {
		return false, s.seenErr
	}
	return s.seen[url], nil
}

func (s *fakeState) MarkSeen(ctx context.Context, urls []string) error {
	for _, u := range urls {
		s.seen[u] = true
	}
	return nil
}

func listingsFixture(n int) []ai.RawListing {
	listings := make([]ai.RawListing, n)
	for i := range listings {
		listings[i] = ai.RawListing{
			Platform: "remotive",
			URL:      fmt.Sprintf("https://example.com/jobs/%d", i),
			Title:    fmt.Sprintf("Engineer %d", i),
			Company:  "Acme",
		}
	}
	return listings
}

// ── tests ──────────────────────────────────────────────────────────────────

func TestWorkerRunPersistsOnlyAcceptedListings(t *testing.T) {
	listings := listingsFixture(5)
	client := &fakeAI{
		extractFails: map[string]bool{listings[0].URL: true, listings[1].URL: true},
		invalid:      map[string]bool{listings[2].URL: true},
	}
	store := newFakeJobStore()
	state := newFakeState()
	w := NewWorker([]Fetcher{&fakeFetcher{platform: "remotive", listings: listings}},
		client, store, state, 0)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Fetched)
	assert.Equal(t, 2, summary.Errors, "extraction failures count as errors")
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 2, summary.Persisted)
	assert.Len(t, store.byURL, 2)

	rec := store.byURL[listings[3].URL]
	require.NotNil(t, rec)
	assert.True(t, rec.AIProcessed)
	assert.Equal(t, "remote", rec.RemoteType)
	assert.Equal(t, "senior", rec.ExperienceLevel)
	assert.Equal(t, "engineering", rec.JobType)
}

func TestWorkerSkipsSeenListings(t *testing.T) {
	listings := listingsFixture(3)
	state := newFakeState()
	state.seen[listings[0].URL] = true

	client := &fakeAI{}
	store := newFakeJobStore()
	w := NewWorker([]Fetcher{&fakeFetcher{platform: "remotive", listings: listings}},
		client, store, state, 0)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Persisted)
	// The seen listing never cost an AI call.
	assert.Equal(t, 2, client.calls)
}

func TestWorkerSkipsListingsPostedBeforeLastScrape(t *testing.T) {
	lastRun := time.Date(2025, 6, 10, 2, 0, 0, 0, time.UTC)
	stale := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fresh := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

	listings := []ai.RawListing{
		{Platform: "remotive", URL: "https://example.com/jobs/stale", Title: "Engineer", Company: "Acme", PostedAt: &stale},
		{Platform: "remotive", URL: "https://example.com/jobs/fresh", Title: "Engineer", Company: "Acme", PostedAt: &fresh},
		{Platform: "remotive", URL: "https://example.com/jobs/undated", Title: "Engineer", Company: "Acme"},
	}
	state := newFakeState()
	state.lastScrape["remotive"] = lastRun

	client := &fakeAI{}
	store := newFakeJobStore()
	w := NewWorker([]Fetcher{&fakeFetcher{platform: "remotive", listings: listings}},
		client, store, state, 0)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped, "listing posted before the last scrape is skipped")
	assert.Equal(t, 2, summary.Persisted, "fresh and undated listings still go through")
	assert.Equal(t, 2, client.calls, "stale listings never cost an AI call")
	assert.Nil(t, store.byURL["https://example.com/jobs/stale"])
}

func TestWorkerProcessesEverythingOnFirstScrape(t *testing.T) {
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	listings := []ai.RawListing{
		{Platform: "remotive", URL: "https://example.com/jobs/old", Title: "Engineer", Company: "Acme", PostedAt: &old},
	}
	w := NewWorker([]Fetcher{&fakeFetcher{platform: "remotive", listings: listings}},
		&fakeAI{}, newFakeJobStore(), newFakeState(), 0)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	// No recorded last scrape yet, so nothing is considered stale.
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 1, summary.Persisted)
}

func TestWorkerDeduplicatesWithinARun(t *testing.T) {
	dup := ai.RawListing{Platform: "remotive", URL: "https://example.com/jobs/same", Title: "Engineer", Company: "Acme"}
	w := NewWorker(
		[]Fetcher{&fakeFetcher{platform: "remotive", listings: []ai.RawListing{dup, dup, dup}}},
		&fakeAI{}, newFakeJobStore(), newFakeState(), 0)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Persisted)
	assert.Equal(t, 2, summary.Duplicates)
}

func TestWorkerCrossPlatformDuplicateFirstSeenWins(t *testing.T) {
	shared := "https://example.com/jobs/shared"
	a := &fakeFetcher{platform: "remotive", listings: []ai.RawListing{
		{Platform: "remotive", URL: shared, Title: "Engineer", Company: "Acme"},
	}}
	b := &fakeFetcher{platform: "remoteok", listings: []ai.RawListing{
		{Platform: "remoteok", URL: shared, Title: "Engineer", Company: "Acme"},
	}}
	store := newFakeJobStore()
	w := NewWorker([]Fetcher{a, b}, &fakeAI{}, store, newFakeState(), 0)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Persisted)
	assert.Equal(t, 1, summary.Duplicates)
	require.NotNil(t, store.byURL[shared])
	assert.Equal(t, "remotive", store.byURL[shared].SourcePlatform, "first platform wins")
}

func TestWorkerPlatformFailureSkipsOnlyThatPlatform(t *testing.T) {
	broken := &fakeFetcher{platform: "weworkremotely", err: errors.New("feed unreachable")}
	healthy := &fakeFetcher{platform: "remotive", listings: listingsFixture(2)}
	state := newFakeState()
	w := NewWorker([]Fetcher{broken, healthy}, &fakeAI{}, newFakeJobStore(), state, 0)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Platforms)
	assert.Equal(t, 2, summary.Persisted)

	_, ok := state.lastScrape["weworkremotely"]
	assert.False(t, ok, "failed platform must not record a successful scrape")
	_, ok = state.lastScrape["remotive"]
	assert.True(t, ok)
}

func TestWorkerRedFlagFilter(t *testing.T) {
	listings := []ai.RawListing{
		{Platform: "remotive", URL: "https://example.com/jobs/ok", Title: "Engineer", Company: "Acme"},
		{Platform: "remotive", URL: "https://example.com/jobs/scam", Title: "Earn big, commission only!", Company: "Shady Inc"},
	}
	client := &fakeAI{}
	w := NewWorker([]Fetcher{&fakeFetcher{platform: "remotive", listings: listings}},
		client, newFakeJobStore(), newFakeState(), 0)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Filtered)
	assert.Equal(t, 1, summary.Persisted)
	assert.Equal(t, 1, client.calls, "flagged listings never reach the AI")
}

func TestWorkerStateStoreOutageDegradesGracefully(t *testing.T) {
	state := newFakeState()
	state.seenErr = errors.New("redis down")
	store := newFakeJobStore()
	w := NewWorker([]Fetcher{&fakeFetcher{platform: "remotive", listings: listingsFixture(2)}},
		&fakeAI{}, store, state, 0)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	// Listings are re-processed rather than lost.
	assert.Equal(t, 2, summary.Persisted)
}

func TestWorkerMarksRejectedListingsSeen(t *testing.T) {
	listings := listingsFixture(1)
	state := newFakeState()
	w := NewWorker([]Fetcher{&fakeFetcher{platform: "remotive", listings: listings}},
		&fakeAI{invalid: map[string]bool{listings[0].URL: true}},
		newFakeJobStore(), state, 0)

	_, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, state.seen[listings[0].URL], "rejected listings are not revisited next run")
}
