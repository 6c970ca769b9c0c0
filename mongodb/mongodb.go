// Package mongodb implements the persistence interfaces on MongoDB.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	clientsCollection = "clients"
	usersCollection   = "users"
	codesCollection   = "auth_codes"
	tokensCollection  = "tokens"
	roomsCollection   = "rooms"
	zonesCollection   = "zones"
)

const connectTimeout = 10 * time.Second

// Connect dials the server and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "[mongodb.Connect] Connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, errors.Wrap(err, "[mongodb.Connect] Ping")
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on. The unique email
// index is what makes duplicate registration detection race-free, and the TTL
// index reaps expired authorization codes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "[mongodb.EnsureIndexes] users email")
	}

	_, err = db.Collection(codesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return errors.Wrap(err, "[mongodb.EnsureIndexes] codes expiry")
	}

	_, err = db.Collection(tokensCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "kind", Value: 1}},
	})
	if err != nil {
		return errors.Wrap(err, "[mongodb.EnsureIndexes] tokens owner")
	}

	for _, name := range []string{roomsCollection, zonesCollection} {
		_, err = db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		})
		if err != nil {
			return errors.Wrapf(err, "[mongodb.EnsureIndexes] %s owner", name)
		}
	}
	return nil
}
