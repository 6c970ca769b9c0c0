package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/cleanhq/cleaner/users"
)

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{collection: db.Collection(usersCollection)}
}

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Name         string    `bson:"name,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (ur *UserRepo) Create(ctx context.Context, user *users.User) error {
	_, err := ur.collection.InsertOne(ctx, toUserDocument(user))
	if mongo.IsDuplicateKeyError(err) {
		return users.ErrEmailTaken
	}
	return errors.Wrap(err, "[UserRepo.Create] InsertOne")
}

func (ur *UserRepo) Update(ctx context.Context, user *users.User) error {
	result, err := ur.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, toUserDocument(user))
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Update] ReplaceOne")
	}
	if result.MatchedCount == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

func (ur *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return ur.findOne(ctx, bson.M{"_id": id})
}

func (ur *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return ur.findOne(ctx, bson.M{"email": email})
}

func (ur *UserRepo) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	var doc userDocument
	err := ur.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[UserRepo.findOne] FindOne")
	}
	return fromUserDocument(&doc), nil
}

func toUserDocument(user *users.User) *userDocument {
	return &userDocument{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func fromUserDocument(doc *userDocument) *users.User {
	return &users.User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Name:         doc.Name,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}
