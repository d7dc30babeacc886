package lake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"remotejobs/aggregator/internal/model"
)

// MinioConfig holds the object-store connection settings. The same backend
// serves plain S3 deployments; only the endpoint differs.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore is the object-storage backend of the cold store.
type MinioStore struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

// NewMinioStore connects to the object store and ensures the bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("[lake] Created bucket %s", cfg.Bucket)
	}

	log.Printf("[lake] Object-store data lake initialised: %s/%s", cfg.Endpoint, cfg.Bucket)
	return &MinioStore{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

// StoreSnapshot uploads one compressed snapshot blob under the day partition.
func (s *MinioStore) StoreSnapshot(ctx context.Context, dataType string, records []any, day time.Time) (string, error) {
	blob, err := encodeSnapshot(dataType, records, day, s.now())
	if err != nil {
		return "", err
	}

	key := snapshotKey(dataType, day, s.now())
	_, err = s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(blob), int64(len(blob)),
		minio.PutObjectOptions{ContentType: "application/gzip"})
	if err != nil {
		return "", fmt.Errorf("put snapshot %s: %w", key, err)
	}

	log.Printf("[lake] Snapshot stored: %s (%d records)", key, len(records))
	return key, nil
}

// RetrieveSnapshot downloads the most recently written snapshot of the day.
func (s *MinioStore) RetrieveSnapshot(ctx context.Context, dataType string, day time.Time) (*model.SnapshotEnvelope, error) {
	prefix := dailyPath(dataType, day) + "/"

	var latest minio.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		if latest.Key == "" || obj.LastModified.After(latest.LastModified) {
			latest = obj
		}
	}
	if latest.Key == "" {
		return nil, nil
	}

	rd, err := s.client.GetObject(ctx, s.bucket, latest.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", latest.Key, err)
	}
	defer rd.Close()

	blob, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", latest.Key, err)
	}
	return decodeSnapshot(blob)
}

// StoreAnalytics uploads one analytics document under the analytics partition.
func (s *MinioStore) StoreAnalytics(ctx context.Context, metricType string, data any, day time.Time) (string, error) {
	blob, err := encodeAnalytics(metricType, data, day, s.now())
	if err != nil {
		return "", err
	}

	key := analyticsKey(metricType, day, s.now())
	_, err = s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(blob), int64(len(blob)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("put analytics %s: %w", key, err)
	}

	log.Printf("[lake] Analytics stored: %s", key)
	return key, nil
}

// ListSnapshots returns every key stored for dataType in the date range.
func (s *MinioStore) ListSnapshots(ctx context.Context, dataType string, from, to time.Time) ([]string, error) {
	var keys []string
	for _, day := range dateRange(from, to) {
		prefix := dailyPath(dataType, day) + "/"
		for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
			if obj.Err != nil {
				return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
			}
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}
