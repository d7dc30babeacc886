package scraper

import (
	"context"
	"log"
	"time"

	"remotejobs/aggregator/internal/ai"
	"remotejobs/aggregator/internal/model"
)

// JobStore is the write side of the source store the worker needs.
type JobStore interface {
	InsertJob(ctx context.Context, rec *model.JobRecord) (inserted bool, err error)
}

// StateStore tracks cross-run scrape progress.
type StateStore interface {
	LastScrape(ctx context.Context, platform string) (time.Time, bool, error)
	SetLastScrape(ctx context.Context, platform string, t time.Time) error
	Seen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, urls []string) error
}

// Worker runs the full scrape cycle: fetch raw listings per platform, filter
// out stale and flagged ones, extract and validate through the AI client, and
// insert accepted jobs into the source store.
//
// Exactly one cycle runs at a time; the scheduler never overlaps runs.
type Worker struct {
	fetchers []Fetcher
	client   ai.Client
	store    JobStore
	state    StateStore
	delay    time.Duration // pause between AI calls, keeps us under rate limits
	redFlags []string
	now      func() time.Time
}

// NewWorker constructs a Worker over the given platforms.
func NewWorker(fetchers []Fetcher, client ai.Client, store JobStore, state StateStore, delay time.Duration) *Worker {
	return &Worker{
		fetchers: fetchers,
		client:   client,
		store:    store,
		state:    state,
		delay:    delay,
		redFlags: defaultRedFlags,
		now:      time.Now,
	}
}

// RunSummary reports what one scrape cycle did across all platforms.
type RunSummary struct {
	Platforms  int `json:"platforms"`
	Fetched    int `json:"fetched"`
	Skipped    int `json:"skipped"`    // already seen in a previous run
	Filtered   int `json:"filtered"`   // red-flag pre-filter
	Rejected   int `json:"rejected"`   // AI validation said no
	Persisted  int `json:"persisted"`  // new rows in the source store
	Duplicates int `json:"duplicates"` // in-run or store-level source_url collisions
	Errors     int `json:"errors"`     // extraction/validation/store failures
}

// Run executes one scrape cycle over every platform. A platform failure is
// logged and skipped; the cycle itself only fails on context cancellation.
func (w *Worker) Run(ctx context.Context) (RunSummary, error) {
	var summary RunSummary
	seenThisRun := make(map[string]bool)

	for _, fetcher := range w.fetchers {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		platform := fetcher.Platform()
		log.Printf("[worker] Scraping platform %s", platform)

		listings, err := fetcher.Fetch(ctx)
		if err != nil {
			log.Printf("[worker] Error fetching %s: %v — skipping platform", platform, err)
			continue
		}
		summary.Platforms++

		lastScrape, haveLast, err := w.state.LastScrape(ctx, platform)
		if err != nil {
			log.Printf("[worker] Error reading last scrape for %s: %v", platform, err)
			haveLast = false
		}

		w.processListings(ctx, listings, lastScrape, haveLast, seenThisRun, &summary)

		if err := w.state.SetLastScrape(ctx, platform, w.now()); err != nil {
			log.Printf("[worker] Error recording last scrape for %s: %v", platform, err)
		}
	}

	log.Printf("[worker] Cycle done — fetched=%d skipped=%d filtered=%d rejected=%d persisted=%d duplicates=%d errors=%d",
		summary.Fetched, summary.Skipped, summary.Filtered, summary.Rejected,
		summary.Persisted, summary.Duplicates, summary.Errors)
	return summary, nil
}

func (w *Worker) processListings(ctx context.Context, listings []ai.RawListing, lastScrape time.Time, haveLast bool, seenThisRun map[string]bool, summary *RunSummary) {
	for _, listing := range listings {
		if ctx.Err() != nil {
			return
		}
		summary.Fetched++

		if listing.URL == "" {
			summary.Errors++
			continue
		}

		// ── In-run dedup (first seen wins) ─────────────────
		if seenThisRun[listing.URL] {
			summary.Duplicates++
			continue
		}
		seenThisRun[listing.URL] = true

		// ── Freshness filter ───────────────────────────────
		// Only listings posted since the platform's last successful
		// scrape are worth an AI round-trip. Undated listings pass.
		if haveLast && listing.PostedAt != nil && !listing.PostedAt.After(lastScrape) {
			summary.Skipped++
			continue
		}

		// ── Cross-run seen-URL filter ──────────────────────
		seen, err := w.state.Seen(ctx, listing.URL)
		if err != nil {
			// Losing Redis degrades to re-processing, never to data loss:
			// the source store still rejects duplicate URLs.
			log.Printf("[worker] Error checking seen state for %s: %v", listing.URL, err)
		} else if seen {
			summary.Skipped++
			continue
		}

		// ── Red-flag pre-filter, saves an AI round-trip ────
		if ContainsRedFlag(listing.Title, listing.Company, listing.Description, w.redFlags) {
			summary.Filtered++
			w.markSeen(ctx, listing.URL)
			continue
		}

		rec, outcome := w.processListing(ctx, listing)
		switch outcome {
		case StageRejected:
			summary.Rejected++
			w.markSeen(ctx, listing.URL)
		case StageAccepted:
			inserted, err := w.store.InsertJob(ctx, rec)
			switch {
			case err != nil:
				log.Printf("[worker] Error inserting %s: %v", listing.URL, err)
				summary.Errors++
			case inserted:
				w.advance(outcome, StagePersisted)
				summary.Persisted++
				w.markSeen(ctx, listing.URL)
			default:
				summary.Duplicates++
				w.markSeen(ctx, listing.URL)
			}
		default:
			summary.Errors++
		}

		if w.delay > 0 {
			time.Sleep(w.delay)
		}
	}
}

// processListing runs extraction and validation for one listing. It returns
// StageAccepted with a ready record, StageRejected for verdicts and malformed
// model output, or the non-terminal stage the listing stalled at when a
// transient failure means retry later.
func (w *Worker) processListing(ctx context.Context, listing ai.RawListing) (*model.JobRecord, Stage) {
	stage := StageFetched

	extraction, err := w.client.ExtractJob(ctx, listing)
	if err != nil {
		log.Printf("[worker] Error extracting %s: %v", listing.URL, err)
		return nil, stage
	}
	stage = w.advance(stage, StageExtracted)

	verdict, err := w.client.ValidateJob(ctx, extraction)
	if err != nil {
		log.Printf("[worker] Error validating %s: %v", listing.URL, err)
		return nil, stage
	}
	stage = w.advance(stage, StageValidated)

	if !verdict.IsValid {
		log.Printf("[worker] Rejected %s: %s", listing.URL, verdict.Reasoning)
		return nil, w.advance(stage, StageRejected)
	}

	return w.toRecord(listing, extraction, verdict), w.advance(stage, StageAccepted)
}

// advance moves a listing between pipeline stages, enforcing the stage
// machine. A disallowed advance (or any advance out of a terminal stage)
// means a pipeline bug; the listing stays where it was.
func (w *Worker) advance(from, to Stage) Stage {
	if IsTerminal(from) || !IsAdvanceAllowed(from, to) {
		log.Printf("[worker] Invalid stage advance %s -> %s", from, to)
		return from
	}
	return to
}

// toRecord assembles the source-store row from the raw listing, the
// extraction and the validation verdict.
func (w *Worker) toRecord(listing ai.RawListing, extraction *ai.Extraction, verdict *ai.Validation) *model.JobRecord {
	rec := &model.JobRecord{
		Title:           firstNonEmpty(extraction.Title, listing.Title),
		Company:         firstNonEmpty(extraction.Company, listing.Company),
		Location:        firstNonEmpty(extraction.Location, listing.Location),
		Description:     firstNonEmpty(extraction.Description, listing.Description),
		JobType:         firstNonEmpty(verdict.JobTypeCategory, extraction.JobType),
		ExperienceLevel: extraction.SkillsAnalysis.ExperienceLevel,
		RemoteType:      firstNonEmpty(verdict.RemoteType, "remote"),
		SourceURL:       listing.URL,
		SourcePlatform:  listing.Platform,
		PostedDate:      listing.PostedAt,
		Skills:          extraction.SkillsAnalysis.TechnicalSkills,
		AISummary:       extraction.SkillsAnalysis.Summary,
		AIProcessed:     true,
		IsActive:        true,
	}
	rec.SalaryMin, rec.SalaryMax = ParseSalaryText(firstNonEmpty(extraction.Salary, listing.SalaryText))
	return rec
}

func (w *Worker) markSeen(ctx context.Context, url string) {
	if err := w.state.MarkSeen(ctx, []string{url}); err != nil {
		log.Printf("[worker] Error marking %s seen: %v", url, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
