package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/cleanhq/cleaner/clients"
	"github.com/cleanhq/cleaner/scopes"
)

var _ clients.Repo = (*ClientRepo)(nil)

type ClientRepo struct {
	collection *mongo.Collection
}

func NewClientRepo(db *mongo.Database) *ClientRepo {
	return &ClientRepo{collection: db.Collection(clientsCollection)}
}

type clientDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	SecretDigest string    `bson:"secret_digest,omitempty"`
	RedirectURIs []string  `bson:"redirect_uris"`
	GrantTypes   []string  `bson:"grant_types"`
	Scopes       []string  `bson:"scopes"`
	Public       bool      `bson:"public"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (cr *ClientRepo) Create(ctx context.Context, client *clients.Client) error {
	if _, err := cr.collection.InsertOne(ctx, toClientDocument(client)); err != nil {
		return errors.Wrap(err, "[ClientRepo.Create] InsertOne")
	}
	return nil
}

func (cr *ClientRepo) Get(ctx context.Context, clientID string) (*clients.Client, error) {
	var doc clientDocument
	err := cr.collection.FindOne(ctx, bson.M{"_id": clientID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, clients.ErrClientNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[ClientRepo.Get] FindOne")
	}
	return fromClientDocument(&doc)
}

func (cr *ClientRepo) List(ctx context.Context) ([]*clients.Client, error) {
	cursor, err := cr.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "[ClientRepo.List] Find")
	}
	defer cursor.Close(ctx)

	list := make([]*clients.Client, 0)
	for cursor.Next(ctx) {
		var doc clientDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "[ClientRepo.List] Decode")
		}
		client, err := fromClientDocument(&doc)
		if err != nil {
			return nil, err
		}
		list = append(list, client)
	}
	return list, errors.Wrap(cursor.Err(), "[ClientRepo.List] cursor")
}

func toClientDocument(client *clients.Client) *clientDocument {
	grantTypes := make([]string, 0, len(client.GrantTypes))
	for _, g := range client.GrantTypes {
		grantTypes = append(grantTypes, string(g))
	}
	return &clientDocument{
		ID:           client.ID,
		Name:         client.Name,
		SecretDigest: client.SecretDigest,
		RedirectURIs: client.RedirectURIs,
		GrantTypes:   grantTypes,
		Scopes:       client.Scopes.Slice(),
		Public:       client.Public,
		CreatedAt:    client.CreatedAt,
	}
}

func fromClientDocument(doc *clientDocument) (*clients.Client, error) {
	scps, err := scopes.ParseSlice(doc.Scopes)
	if err != nil {
		return nil, errors.Wrap(err, "[mongodb.fromClientDocument] scopes")
	}
	grantTypes := make([]clients.GrantType, 0, len(doc.GrantTypes))
	for _, g := range doc.GrantTypes {
		grantTypes = append(grantTypes, clients.GrantType(g))
	}
	return &clients.Client{
		ID:           doc.ID,
		Name:         doc.Name,
		SecretDigest: doc.SecretDigest,
		RedirectURIs: doc.RedirectURIs,
		GrantTypes:   grantTypes,
		Scopes:       scps,
		Public:       doc.Public,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
