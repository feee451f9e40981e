package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amankumarsingh77/solr_query/config"
	"github.com/amankumarsingh77/solr_query/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrQueryNotFound = errors.New("saved query not found")

type MongoClient struct {
	Client *mongo.Client
	DB     *mongo.Database
	cfg    *config.MongoConfig
}

func NewMongoClient(ctx context.Context, cfg *config.MongoConfig) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Println("Connected to MongoDB")
	m := &MongoClient{
		Client: client,
		DB:     client.Database(cfg.DBName),
		cfg:    cfg,
	}

	_, err = m.queries().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create saved query index: %w", err)
	}
	return m, nil
}

func (m *MongoClient) queries() *mongo.Collection {
	return m.DB.Collection(m.cfg.QueryColl)
}

// SaveQuery inserts or replaces the query with the same name.
func (m *MongoClient) SaveQuery(ctx context.Context, q *models.SavedQuery) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now())
	update := bson.M{
		"$set": bson.M{
			"description": q.Description,
			"expr":        q.Expr,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"name":       q.Name,
			"created_at": now,
		},
	}

	var saved models.SavedQuery
	err := m.queries().FindOneAndUpdate(ctx, bson.M{"name": q.Name}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return fmt.Errorf("failed to save query %s: %w", q.Name, err)
	}
	*q = saved
	return nil
}

func (m *MongoClient) GetQuery(ctx context.Context, name string) (*models.SavedQuery, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var q models.SavedQuery
	err := m.queries().FindOne(ctx, bson.M{"name": name}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", name, ErrQueryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load query %s: %w", name, err)
	}
	return &q, nil
}

func (m *MongoClient) ListQueries(ctx context.Context, limit int64) ([]models.SavedQuery, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(limit)

	cursor, err := m.queries().Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	defer cursor.Close(ctx)

	queries := []models.SavedQuery{}
	if err = cursor.All(ctx, &queries); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return queries, nil
}

func (m *MongoClient) DeleteQuery(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := m.queries().DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return fmt.Errorf("failed to delete query %s: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", name, ErrQueryNotFound)
	}
	return nil
}

func (m *MongoClient) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	log.Println("MongoDB connection closed")
	return nil
}
