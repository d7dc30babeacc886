// Package lake implements the cold store: date-partitioned, compressed
// snapshot blobs and analytics documents, written once and never mutated.
// Backends: MinIO/S3 object storage and a local-filesystem fallback that
// mirrors the same key layout as directory paths.
package lake

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"remotejobs/aggregator/internal/model"
)

// Store is the cold-store contract shared by both backends.
type Store interface {
	// StoreSnapshot writes one compressed snapshot blob for day and returns
	// its key. Multiple snapshots may exist for the same day (time-suffixed).
	StoreSnapshot(ctx context.Context, dataType string, records []any, day time.Time) (string, error)

	// RetrieveSnapshot returns the most recently written snapshot for day,
	// or nil when the day has none.
	RetrieveSnapshot(ctx context.Context, dataType string, day time.Time) (*model.SnapshotEnvelope, error)

	// StoreAnalytics writes one analytics document for day and returns its key.
	StoreAnalytics(ctx context.Context, metricType string, data any, day time.Time) (string, error)

	// ListSnapshots returns the keys of every object stored for dataType in
	// the inclusive [from, to] date range.
	ListSnapshots(ctx context.Context, dataType string, from, to time.Time) ([]string, error)
}

// dailyPath builds the date partition prefix: {type}/year=YYYY/month=MM/day=DD.
func dailyPath(dataType string, day time.Time) string {
	return fmt.Sprintf("%s/year=%d/month=%02d/day=%02d",
		dataType, day.Year(), int(day.Month()), day.Day())
}

// snapshotKey builds the full object key for a snapshot written at now.
func snapshotKey(dataType string, day, now time.Time) string {
	return fmt.Sprintf("%s/%s_snapshot_%s.json.gz",
		dailyPath(dataType, day), dataType, now.Format("150405"))
}

// analyticsKey builds the full object key for an analytics document.
func analyticsKey(metricType string, day, now time.Time) string {
	return fmt.Sprintf("%s/%s_%s.json",
		dailyPath("analytics", day), metricType, now.Format("150405"))
}

// encodeSnapshot marshals the envelope and gzip-compresses it.
func encodeSnapshot(dataType string, records []any, day, now time.Time) ([]byte, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot records: %w", err)
	}

	envelope := model.SnapshotEnvelope{
		SnapshotDate: day.Format("2006-01-02"),
		CreatedAt:    now.UTC(),
		DataType:     dataType,
		RecordCount:  len(records),
		Data:         data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot envelope: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("finish compression: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeSnapshot decompresses and unmarshals a snapshot blob.
func decodeSnapshot(blob []byte) (*model.SnapshotEnvelope, error) {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("open snapshot blob: %w", err)
	}
	defer gz.Close()

	var envelope model.SnapshotEnvelope
	if err := json.NewDecoder(gz).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode snapshot envelope: %w", err)
	}
	return &envelope, nil
}

// encodeAnalytics marshals the analytics envelope (uncompressed).
func encodeAnalytics(metricType string, data any, day, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal analytics data: %w", err)
	}

	envelope := model.AnalyticsEnvelope{
		MetricType: metricType,
		Date:       day.Format("2006-01-02"),
		CreatedAt:  now.UTC(),
		Data:       raw,
	}
	blob, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal analytics envelope: %w", err)
	}
	return blob, nil
}

// dateRange yields each day in the inclusive [from, to] range.
func dateRange(from, to time.Time) []time.Time {
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
