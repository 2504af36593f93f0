// Package db backs the store interfaces with MongoDB for deployments
// that want progression and sentence pools to survive restarts.
package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/olanrewaju08325/typing-tester/internal/models"
	"github.com/olanrewaju08325/typing-tester/internal/store"
)

const databaseName = "typeforge"

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &MongoStore{client: client, db: client.Database(databaseName)}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) GetProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.Collection("users").FindOne(ctx, bson.M{"username": username}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *MongoStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.db.Collection("users").ReplaceOne(ctx, bson.M{"username": profile.Username}, profile, opts)
	return err
}

func (s *MongoStore) Levels(ctx context.Context) ([]models.LevelDefinition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := s.db.Collection("levels").Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var levels []models.LevelDefinition
	if err := cursor.All(ctx, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

func (s *MongoStore) Level(ctx context.Context, name string) (*models.LevelDefinition, error) {
	var level models.LevelDefinition
	err := s.db.Collection("levels").FindOne(ctx, bson.M{"name": name}).Decode(&level)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &level, nil
}

// RandomSentence samples one sentence document for a level.
func (s *MongoStore) RandomSentence(ctx context.Context, level string) (string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "level", Value: level}}}},
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}},
	}

	cursor, err := s.db.Collection("sentences").Aggregate(ctx, pipeline)
	if err != nil {
		return "", err
	}
	defer cursor.Close(ctx)

	var doc struct {
		Text string `bson:"text"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&doc); err != nil {
			return "", err
		}
		return doc.Text, nil
	}
	return "", store.ErrNoSentences
}
