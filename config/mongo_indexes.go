package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func MongoDBName() string {
	if name := os.Getenv("MONGO_DB"); name != "" {
		return name
	}
	return "lectura"
}

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	db := MongoClient.Database(MongoDBName())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// chat_sessions indexes
	sessions := db.Collection("chat_sessions")
	_, err := sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// 1) Lookup key; one document per session
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_session_id").
				SetUnique(true),
		},
		// 2) Cascade delete scans by video
		{
			Keys:    bson.D{{Key: "video_id", Value: 1}},
			Options: options.Index().SetName("by_video"),
		},
		// 3) Query helper for recent sessions
		{
			Keys:    bson.D{{Key: "video_id", Value: 1}, {Key: "last_activity", Value: -1}},
			Options: options.Index().SetName("by_video_activity"),
		},
	})
	return err
}
