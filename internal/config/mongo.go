package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg.DBName); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	// Documents collection: fingerprint is _id, status drives the visible set
	documentsCollection := db.Collection("documents")
	documentIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "uploaded_at", Value: 1}}},
	}
	_, err := documentsCollection.Indexes().CreateMany(context.Background(), documentIndexes)
	if err != nil {
		return err
	}

	// Vector records: unique per (document, chunk) so re-ingestion never
	// duplicates a chunk's vector
	vectorsCollection := db.Collection("vector_records")
	vectorIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "document_id", Value: 1}, {Key: "chunk_index", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err = vectorsCollection.Indexes().CreateMany(context.Background(), vectorIndexes)
	if err != nil {
		return err
	}

	// Sessions collection
	sessionsCollection := db.Collection("sessions")
	sessionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	}
	_, err = sessionsCollection.Indexes().CreateMany(context.Background(), sessionIndexes)
	return err
}
