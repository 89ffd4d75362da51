package io

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/stackscout/pkg/dataset"
	errs "github.com/matzehuels/stackscout/pkg/errors"
	"github.com/matzehuels/stackscout/pkg/observability"
)

// FormatMongo is the format name reported to hooks for MongoDB writes.
const FormatMongo = "mongo"

// mongoBatchSize bounds the number of upserts per BulkWrite call.
const mongoBatchSize = 500

// Document is the stored form of a record.
type Document struct {
	ID          string    `bson:"_id"`
	RunID       string    `bson:"run_id"`
	CollectedAt time.Time `bson:"collected_at"`

	dataset.Record `bson:",inline"`
}

// NewDocument wraps a record for storage.
func NewDocument(r dataset.Record, runID string, at time.Time) Document {
	return Document{ID: r.Name, RunID: runID, CollectedAt: at.UTC(), Record: r}
}

// MongoSink upserts records into a MongoDB collection.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// MongoOptions configures a [MongoSink].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoSink connects to MongoDB and verifies the connection.
func NewMongoSink(ctx context.Context, opts MongoOptions) (*MongoSink, error) {
	if opts.URI == "" || opts.Database == "" || opts.Collection == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "mongo sink needs uri, database and collection")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "connect %s", opts.Database)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "ping %s", opts.Database)
	}
	return &MongoSink{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
		now:        time.Now,
	}, nil
}

// Write upserts records keyed by package name, replacing whatever an
// earlier run stored for the same package. It returns the number of
// documents inserted or modified.
func (s *MongoSink) Write(ctx context.Context, runID string, records []dataset.Record) (n int, err error) {
	defer func() {
		observability.Collect().OnExport(ctx, FormatMongo, len(records), err)
	}()

	models := UpsertModels(runID, records, s.now())
	for start := 0; start < len(models); start += mongoBatchSize {
		end := min(start+mongoBatchSize, len(models))
		res, err := s.collection.BulkWrite(ctx, models[start:end], options.BulkWrite().SetOrdered(false))
		if err != nil {
			return n, errs.Wrap(errs.ErrCodeExport, err, "mongo bulk write")
		}
		n += int(res.UpsertedCount + res.ModifiedCount)
	}
	return n, nil
}

// Close disconnects from MongoDB.
func (s *MongoSink) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// UpsertModels builds one replace-or-insert model per record.
func UpsertModels(runID string, records []dataset.Record, at time.Time) []mongo.WriteModel {
	models := make([]mongo.WriteModel, len(records))
	for i, r := range records {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: r.Name}}).
			SetReplacement(NewDocument(r, runID, at)).
			SetUpsert(true)
	}
	return models
}
