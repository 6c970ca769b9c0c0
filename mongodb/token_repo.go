package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/cleanhq/cleaner/scopes"
	"github.com/cleanhq/cleaner/token"
)

var _ token.Repo = (*TokenRepo)(nil)

type TokenRepo struct {
	collection *mongo.Collection
}

func NewTokenRepo(db *mongo.Database) *TokenRepo {
	return &TokenRepo{collection: db.Collection(tokensCollection)}
}

type tokenDocument struct {
	JTIHash   string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	ClientID  string    `bson:"client_id"`
	UserID    string    `bson:"user_id,omitempty"`
	Scopes    []string  `bson:"scopes"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
	Revoked   bool      `bson:"revoked"`
}

func (tr *TokenRepo) Store(ctx context.Context, record *token.Record) error {
	doc := &tokenDocument{
		JTIHash:   record.JTIHash,
		Kind:      string(record.Kind),
		ClientID:  record.ClientID,
		UserID:    record.UserID,
		Scopes:    record.Scopes.Slice(),
		ExpiresAt: record.ExpiresAt,
		CreatedAt: record.CreatedAt,
		Revoked:   record.Revoked,
	}
	if _, err := tr.collection.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "[TokenRepo.Store] InsertOne")
	}
	return nil
}

func (tr *TokenRepo) Get(ctx context.Context, jtiHash string, kind token.Kind) (*token.Record, error) {
	var doc tokenDocument
	err := tr.collection.FindOne(ctx, filterFor(jtiHash, kind)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, token.ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[TokenRepo.Get] FindOne")
	}

	scps, err := scopes.ParseSlice(doc.Scopes)
	if err != nil {
		return nil, errors.Wrap(err, "[TokenRepo.Get] scopes")
	}
	return &token.Record{
		JTIHash:   doc.JTIHash,
		Kind:      token.Kind(doc.Kind),
		ClientID:  doc.ClientID,
		UserID:    doc.UserID,
		Scopes:    scps,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
		Revoked:   doc.Revoked,
	}, nil
}

func (tr *TokenRepo) Revoke(ctx context.Context, jtiHash string, kind token.Kind) (bool, error) {
	result, err := tr.collection.UpdateOne(ctx, filterFor(jtiHash, kind),
		bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return false, errors.Wrap(err, "[TokenRepo.Revoke] UpdateOne")
	}
	return result.MatchedCount > 0, nil
}

// RevokeActive flips revoked on the live record only. The conditional filter
// makes the server pick exactly one winner under concurrent rotation.
func (tr *TokenRepo) RevokeActive(ctx context.Context, jtiHash string, kind token.Kind) (bool, error) {
	filter := filterFor(jtiHash, kind)
	filter["revoked"] = false
	result, err := tr.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return false, errors.Wrap(err, "[TokenRepo.RevokeActive] UpdateOne")
	}
	return result.ModifiedCount == 1, nil
}

func (tr *TokenRepo) RevokeAllForOwner(ctx context.Context, clientID, userID string, kind token.Kind) error {
	_, err := tr.collection.UpdateMany(ctx, bson.M{
		"client_id": clientID,
		"user_id":   userID,
		"kind":      string(kind),
		"revoked":   false,
	}, bson.M{"$set": bson.M{"revoked": true}})
	return errors.Wrap(err, "[TokenRepo.RevokeAllForOwner] UpdateMany")
}

func filterFor(jtiHash string, kind token.Kind) bson.M {
	return bson.M{"_id": jtiHash, "kind": string(kind)}
}
