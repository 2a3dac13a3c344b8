package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var MongoClient *mongo.Client

// ConnectMongo connects the optional gateway-payload audit store. Returns nil
// when no URI is configured; callers treat a nil database as audit disabled.
func ConnectMongo(uri string) (*mongo.Database, error) {
	if uri == "" {
		log.Println("MONGO_URI not set, gateway payload audit disabled")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Println("Failed to connect to MongoDB:", err)
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Println("Failed to ping MongoDB:", err)
		return nil, err
	}

	MongoClient = client
	log.Println("Connected to MongoDB")
	return client.Database("craftory_audit"), nil
}

// CloseMongo disconnects the audit store if it was connected.
func CloseMongo() {
	if MongoClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := MongoClient.Disconnect(ctx); err != nil {
		log.Println("Failed to disconnect from MongoDB:", err)
	}
}
