package etl

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"remotejobs/aggregator/internal/model"
)

// snapshotDataType is the cold-store partition for job snapshots.
const snapshotDataType = "jobs"

// CreateDailySnapshot bundles the entire active-job set into one compressed
// cold-store blob for day and mirrors a per-job snapshot row into the
// secondary store for point lookups. Returns the cold-store key.
func (p *Pipeline) CreateDailySnapshot(ctx context.Context, day time.Time) (string, error) {
	if day.IsZero() {
		day = p.now()
	}
	day = dateOnly(day)

	jobs, err := p.docs.ActiveJobs(ctx)
	if err != nil {
		return "", fmt.Errorf("read active jobs: %w", err)
	}

	records := make([]any, len(jobs))
	for i := range jobs {
		records[i] = jobs[i]
	}

	path, err := p.lake.StoreSnapshot(ctx, snapshotDataType, records, day)
	if err != nil {
		return "", fmt.Errorf("store snapshot in data lake: %w", err)
	}

	takenAt := p.now().UTC()
	stored := 0
	for _, job := range jobs {
		snap := model.SnapshotDoc{
			JobID:        job.SourceURL,
			SnapshotDate: takenAt,
			JobData:      job,
			Metrics: map[string]string{
				"snapshot_date": day.Format("2006-01-02"),
				"total_jobs":    strconv.Itoa(len(jobs)),
			},
		}
		if err := p.docs.InsertSnapshotDoc(ctx, snap); err != nil {
			// A failed per-job row never invalidates the lake snapshot.
			log.Printf("[snapshot] Error storing snapshot row for %s: %v", job.SourceURL, err)
			continue
		}
		stored++
	}

	log.Printf("[snapshot] Daily snapshot created: %s (%d jobs, %d rows)", path, len(jobs), stored)
	return path, nil
}

// CleanupResult reports what CleanupOldData removed.
type CleanupResult struct {
	Snapshots int64 `json:"snapshots_deleted"`
	Analytics int64 `json:"analytics_deleted"`
}

// CleanupOldData deletes secondary-store snapshot and analytics documents
// older than daysToKeep. The source store and the cold store (the permanent
// archive) are never touched.
func (p *Pipeline) CleanupOldData(ctx context.Context, daysToKeep int) (CleanupResult, error) {
	cutoff := p.now().UTC().AddDate(0, 0, -daysToKeep)

	var result CleanupResult

	n, err := p.docs.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("cleanup snapshots: %w", err)
	}
	result.Snapshots = n

	n, err = p.docs.DeleteAnalyticsBefore(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("cleanup analytics: %w", err)
	}
	result.Analytics = n

	log.Printf("[snapshot] Cleanup removed %d snapshot rows and %d analytics docs",
		result.Snapshots, result.Analytics)
	return result, nil
}
