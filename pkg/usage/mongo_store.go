package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultMongoCollection is the collection used by NewMongoStore.
const DefaultMongoCollection = "feature_usage"

type mongoUsageDoc struct {
	UserID              string    `bson:"user_id"`
	Period              time.Time `bson:"period"`
	QuotesCount         int64     `bson:"quotes_count"`
	PDFExportsCount     int64     `bson:"pdf_exports_count"`
	APICallsCount       int64     `bson:"api_calls_count"`
	BulkOperationsCount int64     `bson:"bulk_operations_count"`
	UpdatedAt           time.Time `bson:"updated_at"`
}

func (d mongoUsageDoc) toUsage(userID uuid.UUID) FeatureUsage {
	return FeatureUsage{
		UserID:              userID,
		Period:              MonthStart(d.Period),
		QuotesCount:         d.QuotesCount,
		PDFExportsCount:     d.PDFExportsCount,
		APICallsCount:       d.APICallsCount,
		BulkOperationsCount: d.BulkOperationsCount,
	}
}

// MongoStore keeps one document per user and month.
type MongoStore struct {
	storeConfig
	coll *mongo.Collection
}

// NewMongoStore returns a store using the feature_usage collection of db.
func NewMongoStore(db *mongo.Database, opts ...StoreOption) *MongoStore {
	if db == nil {
		panic("usage: mongo database is required")
	}
	return &MongoStore{
		storeConfig: newStoreConfig(opts),
		coll:        db.Collection(DefaultMongoCollection),
	}
}

// EnsureIndexes creates the unique (user_id, period) index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "period", Value: -1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) GetCurrentUsage(ctx context.Context, userID uuid.UUID) (FeatureUsage, error) {
	period := s.currentPeriod()

	var doc mongoUsageDoc
	err := s.coll.FindOne(ctx, bson.D{
		{Key: "user_id", Value: userID.String()},
		{Key: "period", Value: period},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return emptyUsage(userID, period), nil
		}
		return FeatureUsage{}, errors.Join(ErrFailedToReadUsage, err)
	}
	return doc.toUsage(userID), nil
}

func (s *MongoStore) IncrementUsage(ctx context.Context, userID uuid.UUID, t Type, amount int64) error {
	if err := validateIncrement(userID, t, amount); err != nil {
		return err
	}

	filter := bson.D{
		{Key: "user_id", Value: userID.String()},
		{Key: "period", Value: s.currentPeriod()},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: t.column(), Value: amount}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now().UTC()}}},
	}

	if _, err := s.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return errors.Join(ErrFailedToIncrementUsage, err)
	}
	return nil
}

func (s *MongoStore) GetUsageHistory(ctx context.Context, userID uuid.UUID, monthsBack int) ([]FeatureUsage, error) {
	periods := Periods(s.now(), monthsBack)
	if len(periods) == 0 {
		return []FeatureUsage{}, nil
	}

	cursor, err := s.coll.Find(ctx, bson.D{
		{Key: "user_id", Value: userID.String()},
		{Key: "period", Value: bson.D{
			{Key: "$gte", Value: periods[len(periods)-1]},
			{Key: "$lte", Value: periods[0]},
		}},
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToReadUsage, err)
	}

	var docs []mongoUsageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrFailedToReadUsage, err)
	}

	found := make(map[time.Time]FeatureUsage, len(docs))
	for _, d := range docs {
		u := d.toUsage(userID)
		found[u.Period] = u
	}
	return fillHistory(userID, periods, found), nil
}

var _ Store = (*MongoStore)(nil)
