package lake

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"remotejobs/aggregator/internal/model"
)

// LocalStore is the filesystem fallback backend. Object keys become paths
// under root, so local and object-store deployments stay interchangeable.
type LocalStore struct {
	root string
	now  func() time.Time
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create data lake root %s: %w", root, err)
	}
	log.Printf("[lake] Local data lake initialised at %s", root)
	return &LocalStore{root: root, now: time.Now}, nil
}

// StoreSnapshot writes one compressed snapshot blob under the day partition.
func (s *LocalStore) StoreSnapshot(ctx context.Context, dataType string, records []any, day time.Time) (string, error) {
	blob, err := encodeSnapshot(dataType, records, day, s.now())
	if err != nil {
		return "", err
	}

	key := snapshotKey(dataType, day, s.now())
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create partition dir: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", key, err)
	}

	log.Printf("[lake] Snapshot stored: %s (%d records)", key, len(records))
	return key, nil
}

// RetrieveSnapshot picks the most recently written snapshot of the day. File
// names carry an HHMMSS suffix, so the lexically greatest name is the newest.
func (s *LocalStore) RetrieveSnapshot(ctx context.Context, dataType string, day time.Time) (*model.SnapshotEnvelope, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(dailyPath(dataType, day)))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read partition %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), dataType+"_snapshot_") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)

	blob, err := os.ReadFile(filepath.Join(dir, names[len(names)-1]))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return decodeSnapshot(blob)
}

// StoreAnalytics writes one analytics document under the analytics partition.
func (s *LocalStore) StoreAnalytics(ctx context.Context, metricType string, data any, day time.Time) (string, error) {
	blob, err := encodeAnalytics(metricType, data, day, s.now())
	if err != nil {
		return "", err
	}

	key := analyticsKey(metricType, day, s.now())
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create partition dir: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("write analytics %s: %w", key, err)
	}

	log.Printf("[lake] Analytics stored: %s", key)
	return key, nil
}

// ListSnapshots returns every key stored for dataType in the date range.
func (s *LocalStore) ListSnapshots(ctx context.Context, dataType string, from, to time.Time) ([]string, error) {
	var keys []string
	for _, day := range dateRange(from, to) {
		prefix := dailyPath(dataType, day)
		dir := filepath.Join(s.root, filepath.FromSlash(prefix))
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read partition %s: %w", dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				keys = append(keys, prefix+"/"+e.Name())
			}
		}
	}
	return keys, nil
}
