package etl

import (
	"context"
	"fmt"
	"log"
	"time"

	"remotejobs/aggregator/internal/model"
)

// Batch size bounds for Sync.
const (
	defaultBatchSize = 100
	maxBatchSize     = 1000
)

// SyncResult reports what one sync run did. Every record read from the
// source store lands in exactly one of the three counters.
type SyncResult struct {
	Synced  int `json:"synced"`  // new documents inserted
	Updated int `json:"updated"` // existing documents overwritten
	Errors  int `json:"errors"`  // per-record failures, logged and skipped
}

// Sync mirrors every active remote job from the source store into the
// secondary store, upserting by source_url. Running it twice in a row leaves
// the secondary store unchanged.
//
// A store-connection failure aborts the run and is returned; a per-record
// failure only increments Errors and never blocks the rest of the batch.
func (p *Pipeline) Sync(ctx context.Context, batchSize int) (SyncResult, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}

	var result SyncResult

	for offset := 0; ; offset += batchSize {
		records, err := p.source.ActiveRemoteJobs(ctx, batchSize, offset)
		if err != nil {
			return result, fmt.Errorf("read source store: %w", err)
		}

		for i := range records {
			rec := &records[i]

			doc := p.toDocument(rec)
			created, err := p.docs.UpsertJob(ctx, doc)
			if err != nil {
				log.Printf("[sync] Error syncing job %s: %v", rec.SourceURL, err)
				result.Errors++
				continue
			}

			if created {
				result.Synced++
			} else {
				result.Updated++
			}
		}

		// A short page means the working set is exhausted.
		if len(records) < batchSize {
			break
		}
	}

	log.Printf("[sync] Completed: %d new, %d updated, %d errors",
		result.Synced, result.Updated, result.Errors)
	return result, nil
}

// toDocument maps a canonical record onto its secondary-store mirror,
// deriving tags and stamping sync provenance.
func (p *Pipeline) toDocument(rec *model.JobRecord) *model.JobDocument {
	return &model.JobDocument{
		Title:           rec.Title,
		Company:         rec.Company,
		Location:        rec.Location,
		SalaryMin:       rec.SalaryMin,
		SalaryMax:       rec.SalaryMax,
		SalaryCurrency:  defaultStr(rec.SalaryCurrency, "USD"),
		SalaryPeriod:    defaultStr(rec.SalaryPeriod, "yearly"),
		Description:     rec.Description,
		Requirements:    rec.Requirements,
		Benefits:        rec.Benefits,
		JobType:         rec.JobType,
		ExperienceLevel: rec.ExperienceLevel,
		RemoteType:      "remote", // the sync working set is remote-only
		SourceURL:       rec.SourceURL,
		SourcePlatform:  rec.SourcePlatform,
		PostedDate:      rec.PostedDate,
		Skills:          rec.Skills,
		AISummary:       rec.AISummary,
		AIProcessed:     rec.AIProcessed,
		IsActive:        rec.IsActive,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		Tags:            model.DeriveTags(*rec),
		Metadata: map[string]string{
			"source":    "sqlite_sync",
			"sync_date": p.now().UTC().Format(time.RFC3339),
		},
	}
}

// RetireStale soft-deletes source records older than olderThanDays, keeping
// the active set fresh without ever hard-deleting canonical data.
func (p *Pipeline) RetireStale(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := p.now().UTC().AddDate(0, 0, -olderThanDays)
	n, err := p.source.DeactivateOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retire stale records: %w", err)
	}
	log.Printf("[sync] Retired %d stale source records", n)
	return n, nil
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
