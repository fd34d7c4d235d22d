// Package mongodb is the MongoDB-backed Store. Transactions need a replica set.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

const (
	collBarns     = "barns"
	collBatches   = "batches"
	collDaily     = "daily_records"
	collWeights   = "weight_records"
	collEggs      = "egg_records"
	collFinance   = "finance_records"
	collFeeds     = "feed_inventory"
	collMovements = "feed_stock_movements"
	collReports   = "daily_reports"
)

// Store implements repository.Store on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	inTx   bool
}

var _ repository.Store = (*Store)(nil)

// Connect dials uri, verifies the connection and ensures indexes.
func Connect(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName), logger: logger}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	caseInsensitive := &options.Collation{Locale: "en", Strength: 2}
	uniqueCode := mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
	}
	byBatchDate := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: "batch_id", Value: 1}, {Key: field, Value: -1}}}
	}

	indexes := map[string][]mongo.IndexModel{
		collBarns:     {uniqueCode},
		collBatches:   {uniqueCode, {Keys: bson.D{{Key: "status", Value: 1}}}},
		collDaily:     {byBatchDate("record_date")},
		collWeights:   {byBatchDate("record_date")},
		collEggs:      {byBatchDate("record_date")},
		collFinance:   {byBatchDate("transaction_date")},
		collMovements: {{Keys: bson.D{{Key: "feed_id", Value: 1}, {Key: "date", Value: -1}}}},
		collReports:   {{Keys: bson.D{{Key: "date", Value: 1}}}},
	}
	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// WithinTx runs fn in a multi-document transaction. The context handed to fn
// carries the session, so every call made with it joins the transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	tx := &Store{client: s.client, db: s.db, logger: s.logger, inTx: true}
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx, tx)
	})
	return err
}

// View runs fn in a transaction reading at snapshot concern.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	tx := &Store{client: s.client, db: s.db, logger: s.logger, inTx: true}
	txOpts := options.Transaction().SetReadConcern(readconcern.Snapshot())
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx, tx)
	}, txOpts)
	return err
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translate(err error, entity, key string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.NotFound(entity, key)
	case mongo.IsDuplicateKeyError(err):
		return models.NewDomainError(models.CodeConflict, fmt.Sprintf("%s %s already exists", entity, key))
	default:
		return fmt.Errorf("%s %s: %w", entity, key, err)
	}
}

func insert(ctx context.Context, coll *mongo.Collection, entity, key string, v any) error {
	_, err := coll.InsertOne(ctx, v)
	return translate(err, entity, key)
}

func replace(ctx context.Context, coll *mongo.Collection, entity, id string, v any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, v)
	if err != nil {
		return translate(err, entity, id)
	}
	if res.MatchedCount == 0 {
		return models.NotFound(entity, id)
	}
	return nil
}

func remove(ctx context.Context, coll *mongo.Collection, entity, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, entity, id)
	}
	if res.DeletedCount == 0 {
		return models.NotFound(entity, id)
	}
	return nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, entity, key string, filter bson.M, opts ...*options.FindOneOptions) (*T, error) {
	var v T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&v); err != nil {
		return nil, translate(err, entity, key)
	}
	return &v, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.D, opts *options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", coll.Name(), err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

// recordQuery translates a RecordFilter into a filter and sort on dateField.
func recordQuery(dateField string, f repository.RecordFilter) (bson.D, *options.FindOptions) {
	filter := bson.D{}
	if f.BatchID != "" {
		filter = append(filter, bson.E{Key: "batch_id", Value: f.BatchID})
	}
	window := bson.D{}
	if !f.From.IsZero() {
		window = append(window, bson.E{Key: "$gte", Value: f.From})
	}
	if !f.To.IsZero() {
		window = append(window, bson.E{Key: "$lt", Value: f.To})
	}
	if len(window) > 0 {
		filter = append(filter, bson.E{Key: dateField, Value: window})
	}

	sort := bson.D{}
	if f.Order == repository.OrderByDate {
		sort = append(sort, bson.E{Key: dateField, Value: -1})
	}
	sort = append(sort, bson.E{Key: "created_at", Value: -1}, bson.E{Key: "_id", Value: -1})

	opts := options.Find().SetSort(sort)
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return filter, opts
}

func batchQuery(f repository.BatchFilter) bson.D {
	filter := bson.D{}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.BarnID != "" {
		filter = append(filter, bson.E{Key: "barn_id", Value: f.BarnID})
	}
	if f.CodePrefix != "" {
		filter = append(filter, bson.E{Key: "code", Value: bson.M{"$regex": "^" + regexp.QuoteMeta(f.CodePrefix)}})
	}
	return filter
}

func newestCreated() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}
