// Package etl implements the sync engine and the snapshot/analytics
// generator that move data from the source store through the secondary
// store into the cold store.
package etl

import (
	"context"
	"time"

	"remotejobs/aggregator/internal/lake"
	"remotejobs/aggregator/internal/model"
)

// SourceStore is the read side of the canonical store the pipeline needs.
// ActiveRemoteJobs is paged so the sync engine never holds the whole working
// set in memory; pages must be stable across calls within one run.
type SourceStore interface {
	ActiveRemoteJobs(ctx context.Context, limit, offset int) ([]model.JobRecord, error)
	DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DocumentStore is the secondary-store surface the pipeline writes.
type DocumentStore interface {
	UpsertJob(ctx context.Context, doc *model.JobDocument) (created bool, err error)
	ActiveJobs(ctx context.Context) ([]model.JobDocument, error)
	InsertSnapshotDoc(ctx context.Context, snap model.SnapshotDoc) error
	ReplaceAnalytics(ctx context.Context, doc model.AnalyticsDoc) error
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAnalyticsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pipeline ties the three stores together. It holds no state of its own;
// every operation is independently re-runnable (the secondary and cold
// stores are rebuildable from the source store at any time).
type Pipeline struct {
	source SourceStore
	docs   DocumentStore
	lake   lake.Store
	now    func() time.Time
}

// New constructs a Pipeline over the given stores.
func New(source SourceStore, docs DocumentStore, cold lake.Store) *Pipeline {
	return &Pipeline{
		source: source,
		docs:   docs,
		lake:   cold,
		now:    time.Now,
	}
}

// dateOnly truncates t to midnight UTC, the granularity analytics and
// snapshots are keyed on.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
