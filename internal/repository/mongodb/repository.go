package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/homestead/internal/domain/models"
)

const (
	stateCollection   = "ledger_state"
	reportsCollection = "daily_reports"
)

// SummaryArchive stores dashboard snapshots.
type SummaryArchive interface {
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
}

// MongoDBRepository persists ledger collections as one document per key and
// archives daily summaries.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

type stateDoc struct {
	Key     string `bson:"_id"`
	Payload []byte `bson:"payload"`
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{client: client, dbName: dbName}, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// Load returns the payload stored under key, or nil when none exists.
func (r *MongoDBRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var doc stateDoc
	err := r.collection(stateCollection).FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return doc.Payload, nil
}

// Save upserts the payload under key.
func (r *MongoDBRepository) Save(ctx context.Context, key string, payload []byte) error {
	_, err := r.collection(stateCollection).ReplaceOne(ctx,
		bson.M{"_id": key},
		stateDoc{Key: key, Payload: payload},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// SaveDailySummary archives a dashboard snapshot.
func (r *MongoDBRepository) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	_, err := r.collection(reportsCollection).InsertOne(ctx, summary)
	if err != nil {
		return fmt.Errorf("failed to insert daily summary: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (r *MongoDBRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
