package etl

import (
	"context"
	"fmt"
	"time"

	"remotejobs/aggregator/internal/model"
)

// In-memory store fakes shared by the pipeline tests.

type fakeSource struct {
	records     []model.JobRecord
	readErr     error
	deactivateN int64
	cutoffs     []time.Time
	pageReads   [][2]int // recorded (limit, offset) per call
}

func (f *fakeSource) ActiveRemoteJobs(ctx context.Context, limit, offset int) ([]model.JobRecord, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	f.pageReads = append(f.pageReads, [2]int{limit, offset})
	if offset >= len(f.records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	out := make([]model.JobRecord, end-offset)
	copy(out, f.records[offset:end])
	return out, nil
}

func (f *fakeSource) DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deactivateN, nil
}

type fakeDocs struct {
	byURL        map[string]model.JobDocument
	upsertFails  map[string]bool // source_url -> force an upsert error
	snapRowFails map[string]bool // job_id -> force a snapshot row error
	activeErr    error

	snapshots []model.SnapshotDoc
	analytics []model.AnalyticsDoc
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{byURL: make(map[string]model.JobDocument)}
}

func (f *fakeDocs) UpsertJob(ctx context.Context, doc *model.JobDocument) (bool, error) {
	if f.upsertFails[doc.SourceURL] {
		return false, fmt.Errorf("write failed for %s", doc.SourceURL)
	}
	_, exists := f.byURL[doc.SourceURL]
	f.byURL[doc.SourceURL] = *doc
	return !exists, nil
}

func (f *fakeDocs) ActiveJobs(ctx context.Context) ([]model.JobDocument, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	var out []model.JobDocument
	for _, doc := range f.byURL {
		if doc.IsActive {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocs) InsertSnapshotDoc(ctx context.Context, snap model.SnapshotDoc) error {
	if f.snapRowFails[snap.JobID] {
		return fmt.Errorf("row insert failed for %s", snap.JobID)
	}
	f.snapshots = append(f.snapshots, snap)
	return nil
}

func (f *fakeDocs) ReplaceAnalytics(ctx context.Context, doc model.AnalyticsDoc) error {
	for i := range f.analytics {
		if f.analytics[i].Date.Equal(doc.Date) && f.analytics[i].MetricType == doc.MetricType {
			f.analytics[i] = doc
			return nil
		}
	}
	f.analytics = append(f.analytics, doc)
	return nil
}

func (f *fakeDocs) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var kept []model.SnapshotDoc
	var deleted int64
	for _, snap := range f.snapshots {
		if snap.SnapshotDate.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, snap)
	}
	f.snapshots = kept
	return deleted, nil
}

func (f *fakeDocs) DeleteAnalyticsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var kept []model.AnalyticsDoc
	var deleted int64
	for _, doc := range f.analytics {
		if doc.Date.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	f.analytics = kept
	return deleted, nil
}

type lakeSnapshotWrite struct {
	dataType string
	records  []any
	day      time.Time
	key      string
}

type lakeAnalyticsWrite struct {
	metricType string
	data       any
	day        time.Time
	key        string
}

type fakeLake struct {
	snapshots   []lakeSnapshotWrite
	analytics   []lakeAnalyticsWrite
	snapshotErr error
}

func (f *fakeLake) StoreSnapshot(ctx context.Context, dataType string, records []any, day time.Time) (string, error) {
	if f.snapshotErr != nil {
		return "", f.snapshotErr
	}
	key := snapshotKeyForTest(dataType, day, len(f.snapshots))
	f.snapshots = append(f.snapshots, lakeSnapshotWrite{dataType, records, day, key})
	return key, nil
}

func (f *fakeLake) RetrieveSnapshot(ctx context.Context, dataType string, day time.Time) (*model.SnapshotEnvelope, error) {
	return nil, nil
}

func (f *fakeLake) StoreAnalytics(ctx context.Context, metricType string, data any, day time.Time) (string, error) {
	key := fmt.Sprintf("analytics/%s/%s_%d.json", day.Format("2006-01-02"), metricType, len(f.analytics))
	f.analytics = append(f.analytics, lakeAnalyticsWrite{metricType, data, day, key})
	return key, nil
}

func (f *fakeLake) ListSnapshots(ctx context.Context, dataType string, from, to time.Time) ([]string, error) {
	var keys []string
	for _, w := range f.snapshots {
		if w.dataType == dataType && !w.day.Before(from) && !w.day.After(to) {
			keys = append(keys, w.key)
		}
	}
	return keys, nil
}

func snapshotKeyForTest(dataType string, day time.Time, n int) string {
	return fmt.Sprintf("%s/%s/%s_snapshot_%d.json.gz", dataType, day.Format("2006-01-02"), dataType, n)
}

// newTestPipeline wires a Pipeline over fakes with a fixed clock.
func newTestPipeline(src *fakeSource, docs *fakeDocs, cold *fakeLake, at time.Time) *Pipeline {
	p := New(src, docs, cold)
	p.now = func() time.Time { return at }
	return p
}

func floatPtr(v float64) *float64 { return &v }
