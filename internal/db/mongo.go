package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"remotejobs/aggregator/internal/model"
)

// Collection names in the secondary store.
const (
	jobsCollection      = "jobs"
	snapshotsCollection = "job_snapshots"
	analyticsCollection = "analytics"
)

// jobRetention drives the TTL index on jobs.created_at.
const jobRetention = 90 * 24 * time.Hour

// MongoStore wraps the secondary (document) store. It is written only by the
// sync engine and the snapshot generator; the API reads it.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB, verifies connectivity and ensures the
// collection indexes exist.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ensure indexes: %w", err)
	}

	return s, nil
}

// ensureIndexes creates the text, compound, unique and TTL indexes the API
// and the cleanup path rely on. Safe to call on every startup.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	jobs := s.db.Collection(jobsCollection)
	_, err := jobs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "company", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "skills_required", Value: "text"},
			},
		},
		{
			Keys: bson.D{
				{Key: "remote_type", Value: 1},
				{Key: "experience_level", Value: 1},
				{Key: "salary_min", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "source_url", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(jobRetention.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("jobs indexes: %w", err)
	}

	snapshots := s.db.Collection(snapshotsCollection)
	_, err = snapshots.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "snapshot_date", Value: -1},
			{Key: "job_id", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("snapshot indexes: %w", err)
	}

	analytics := s.db.Collection(analyticsCollection)
	_, err = analytics.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "date", Value: -1},
			{Key: "metric_type", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("analytics indexes: %w", err)
	}

	return nil
}

// UpsertJob writes doc keyed by source_url: a full-field $set when the
// document exists, an insert otherwise. created reports which happened.
func (s *MongoStore) UpsertJob(ctx context.Context, doc *model.JobDocument) (created bool, err error) {
	res, err := s.db.Collection(jobsCollection).UpdateOne(ctx,
		bson.M{"source_url": doc.SourceURL},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("upsert job %s: %w", doc.SourceURL, err)
	}
	return res.UpsertedCount > 0, nil
}

// FindJobBySourceURL returns the document for url, or nil when absent.
func (s *MongoStore) FindJobBySourceURL(ctx context.Context, url string) (*model.JobDocument, error) {
	var doc model.JobDocument
	err := s.db.Collection(jobsCollection).FindOne(ctx, bson.M{"source_url": url}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job %s: %w", url, err)
	}
	return &doc, nil
}

// ActiveJobs returns every is_active document. This is the input set for
// snapshots and analytics.
func (s *MongoStore) ActiveJobs(ctx context.Context) ([]model.JobDocument, error) {
	cur, err := s.db.Collection(jobsCollection).Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, fmt.Errorf("find active jobs: %w", err)
	}
	defer cur.Close(ctx)

	var docs []model.JobDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode active jobs: %w", err)
	}
	return docs, nil
}

// InsertSnapshotDoc appends one per-job snapshot row.
func (s *MongoStore) InsertSnapshotDoc(ctx context.Context, snap model.SnapshotDoc) error {
	_, err := s.db.Collection(snapshotsCollection).InsertOne(ctx, snap)
	if err != nil {
		return fmt.Errorf("insert snapshot doc: %w", err)
	}
	return nil
}

// ReplaceAnalytics stores doc keyed by (date, metric_type), overwriting any
// previous generation for the same pair.
func (s *MongoStore) ReplaceAnalytics(ctx context.Context, doc model.AnalyticsDoc) error {
	_, err := s.db.Collection(analyticsCollection).ReplaceOne(ctx,
		bson.M{"date": doc.Date, "metric_type": doc.MetricType},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("replace analytics %s: %w", doc.MetricType, err)
	}
	return nil
}

// LatestAnalytics returns the most recent metrics document of the given type,
// or nil when none exist.
func (s *MongoStore) LatestAnalytics(ctx context.Context, metricType string) (*model.AnalyticsDoc, error) {
	var doc model.AnalyticsDoc
	err := s.db.Collection(analyticsCollection).FindOne(ctx,
		bson.M{"metric_type": metricType},
		options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest analytics %s: %w", metricType, err)
	}
	return &doc, nil
}

// DeleteSnapshotsBefore removes snapshot rows older than cutoff and returns
// how many were deleted.
func (s *MongoStore) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.Collection(snapshotsCollection).DeleteMany(ctx,
		bson.M{"snapshot_date": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	return res.DeletedCount, nil
}

// DeleteAnalyticsBefore removes analytics documents older than cutoff.
func (s *MongoStore) DeleteAnalyticsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.Collection(analyticsCollection).DeleteMany(ctx,
		bson.M{"date": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete old analytics: %w", err)
	}
	return res.DeletedCount, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
