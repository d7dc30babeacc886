package etl

import (
	"context"
	"errors"
	"testing"
	"time"

	"remotejobs/aggregator/internal/model"
)

var snapClock = time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC)

func snapshotFixtureDocs() *fakeDocs {
	docs := newFakeDocs()
	docs.byURL["a"] = model.JobDocument{SourceURL: "a", Title: "Backend Engineer", IsActive: true}
	docs.byURL["b"] = model.JobDocument{SourceURL: "b", Title: "Data Analyst", IsActive: true}
	docs.byURL["c"] = model.JobDocument{SourceURL: "c", Title: "Retired", IsActive: false}
	return docs
}

func TestCreateDailySnapshot(t *testing.T) {
	docs := snapshotFixtureDocs()
	cold := &fakeLake{}
	p := newTestPipeline(&fakeSource{}, docs, cold, snapClock)

	key, err := p.CreateDailySnapshot(context.Background(), snapClock)
	if err != nil {
		t.Fatalf("CreateDailySnapshot failed: %v", err)
	}
	if key == "" {
		t.Fatal("expected a non-empty cold-store key")
	}

	if len(cold.snapshots) != 1 {
		t.Fatalf("cold store writes = %d, want 1", len(cold.snapshots))
	}
	write := cold.snapshots[0]
	if write.dataType != "jobs" {
		t.Errorf("data type = %q, want jobs", write.dataType)
	}
	// Only the two active jobs are archived.
	if len(write.records) != 2 {
		t.Errorf("archived records = %d, want 2", len(write.records))
	}
	wantDay := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if !write.day.Equal(wantDay) {
		t.Errorf("day = %v, want %v", write.day, wantDay)
	}

	if len(docs.snapshots) != 2 {
		t.Fatalf("snapshot rows = %d, want 2", len(docs.snapshots))
	}
	for _, snap := range docs.snapshots {
		if snap.JobID != snap.JobData.SourceURL {
			t.Errorf("row job_id %q does not match job data %q", snap.JobID, snap.JobData.SourceURL)
		}
		if snap.Metrics["snapshot_date"] != "2025-06-10" {
			t.Errorf("row snapshot_date = %q", snap.Metrics["snapshot_date"])
		}
		if snap.Metrics["total_jobs"] != "2" {
			t.Errorf("row total_jobs = %q, want 2", snap.Metrics["total_jobs"])
		}
	}
}

func TestCreateDailySnapshotRowFailureIsNotFatal(t *testing.T) {
	docs := snapshotFixtureDocs()
	docs.snapRowFails = map[string]bool{"a": true}
	cold := &fakeLake{}
	p := newTestPipeline(&fakeSource{}, docs, cold, snapClock)

	key, err := p.CreateDailySnapshot(context.Background(), snapClock)
	if err != nil {
		t.Fatalf("expected row failure to be contained, got %v", err)
	}
	if key == "" {
		t.Fatal("lake snapshot should still have been written")
	}
	if len(docs.snapshots) != 1 {
		t.Fatalf("snapshot rows = %d, want 1 (one failed)", len(docs.snapshots))
	}
}

func TestCreateDailySnapshotLakeFailureIsFatal(t *testing.T) {
	docs := snapshotFixtureDocs()
	cold := &fakeLake{snapshotErr: errors.New("bucket unreachable")}
	p := newTestPipeline(&fakeSource{}, docs, cold, snapClock)

	if _, err := p.CreateDailySnapshot(context.Background(), snapClock); err == nil {
		t.Fatal("expected cold-store failure to abort the snapshot")
	}
	if len(docs.snapshots) != 0 {
		t.Fatal("no per-job rows should be written when the lake write fails")
	}
}

func TestCleanupOldData(t *testing.T) {
	docs := newFakeDocs()
	docs.snapshots = []model.SnapshotDoc{
		{JobID: "old", SnapshotDate: snapClock.AddDate(0, 0, -100)},
		{JobID: "recent", SnapshotDate: snapClock.AddDate(0, 0, -30)},
	}
	docs.analytics = []model.AnalyticsDoc{
		{MetricType: "daily_metrics", Date: snapClock.AddDate(0, 0, -120)},
		{MetricType: "daily_metrics", Date: snapClock.AddDate(0, 0, -5)},
	}
	p := newTestPipeline(&fakeSource{}, docs, &fakeLake{}, snapClock)

	result, err := p.CleanupOldData(context.Background(), 90)
	if err != nil {
		t.Fatalf("CleanupOldData failed: %v", err)
	}
	if result.Snapshots != 1 || result.Analytics != 1 {
		t.Fatalf("got %+v, want one deletion per collection", result)
	}

	if len(docs.snapshots) != 1 || docs.snapshots[0].JobID != "recent" {
		t.Fatalf("wrong snapshot rows survived: %+v", docs.snapshots)
	}
	if len(docs.analytics) != 1 {
		t.Fatalf("wrong analytics docs survived: %+v", docs.analytics)
	}
}
