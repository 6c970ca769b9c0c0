package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/cleanhq/cleaner/auth"
	"github.com/cleanhq/cleaner/oauthmodel"
	"github.com/cleanhq/cleaner/scopes"
)

var _ auth.CodeRepo = (*CodeRepo)(nil)

type CodeRepo struct {
	collection *mongo.Collection
}

func NewCodeRepo(db *mongo.Database) *CodeRepo {
	return &CodeRepo{collection: db.Collection(codesCollection)}
}

type codeDocument struct {
	Code                string    `bson:"_id"`
	ClientID            string    `bson:"client_id"`
	UserID              string    `bson:"user_id"`
	RedirectURI         string    `bson:"redirect_uri"`
	Scopes              []string  `bson:"scopes"`
	CodeChallenge       string    `bson:"code_challenge,omitempty"`
	CodeChallengeMethod string    `bson:"code_challenge_method,omitempty"`
	ExpiresAt           time.Time `bson:"expires_at"`
	CreatedAt           time.Time `bson:"created_at"`
}

func (cr *CodeRepo) Store(ctx context.Context, code *auth.Code) error {
	doc := &codeDocument{
		Code:                code.Code,
		ClientID:            code.ClientID,
		UserID:              code.UserID,
		RedirectURI:         code.RedirectURI,
		Scopes:              code.Scopes.Slice(),
		CodeChallenge:       code.CodeChallenge,
		CodeChallengeMethod: string(code.CodeChallengeMethod),
		ExpiresAt:           code.ExpiresAt,
		CreatedAt:           code.CreatedAt,
	}
	if _, err := cr.collection.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "[CodeRepo.Store] InsertOne")
	}
	return nil
}

// Consume takes the code out of the collection in one round trip, so a second
// redemption of the same code finds nothing.
func (cr *CodeRepo) Consume(ctx context.Context, code string) (*auth.Code, error) {
	var doc codeDocument
	err := cr.collection.FindOneAndDelete(ctx, bson.M{"_id": code}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrCodeNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[CodeRepo.Consume] FindOneAndDelete")
	}

	scps, err := scopes.ParseSlice(doc.Scopes)
	if err != nil {
		return nil, errors.Wrap(err, "[CodeRepo.Consume] scopes")
	}
	return &auth.Code{
		Code:                doc.Code,
		ClientID:            doc.ClientID,
		UserID:              doc.UserID,
		RedirectURI:         doc.RedirectURI,
		Scopes:              scps,
		CodeChallenge:       doc.CodeChallenge,
		CodeChallengeMethod: oauthmodel.ChallengeMethod(doc.CodeChallengeMethod),
		ExpiresAt:           doc.ExpiresAt,
		CreatedAt:           doc.CreatedAt,
	}, nil
}
