package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/cleanhq/cleaner/rooms"
)

var _ rooms.Repo = (*RoomRepo)(nil)

type RoomRepo struct {
	collection *mongo.Collection
}

func NewRoomRepo(db *mongo.Database) *RoomRepo {
	return &RoomRepo{collection: db.Collection(roomsCollection)}
}

type roomDocument struct {
	ID        string     `bson:"_id"`
	UserID    string     `bson:"user_id"`
	Name      string     `bson:"name"`
	Icon      string     `bson:"icon,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty"`
}

func (rr *RoomRepo) Create(ctx context.Context, room *rooms.Room) error {
	if _, err := rr.collection.InsertOne(ctx, toRoomDocument(room)); err != nil {
		return errors.Wrap(err, "[RoomRepo.Create] InsertOne")
	}
	return nil
}

func (rr *RoomRepo) Get(ctx context.Context, userID, roomID string) (*rooms.Room, error) {
	return rr.findOne(ctx, bson.M{"_id": roomID, "user_id": userID, "deleted_at": nil})
}

func (rr *RoomRepo) GetDeleted(ctx context.Context, userID, roomID string) (*rooms.Room, error) {
	return rr.findOne(ctx, bson.M{"_id": roomID, "user_id": userID, "deleted_at": bson.M{"$ne": nil}})
}

func (rr *RoomRepo) List(ctx context.Context, userID string) ([]*rooms.Room, error) {
	cursor, err := rr.collection.Find(ctx, bson.M{"user_id": userID, "deleted_at": nil},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "[RoomRepo.List] Find")
	}
	defer cursor.Close(ctx)

	list := make([]*rooms.Room, 0)
	for cursor.Next(ctx) {
		var doc roomDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "[RoomRepo.List] Decode")
		}
		list = append(list, fromRoomDocument(&doc))
	}
	return list, errors.Wrap(cursor.Err(), "[RoomRepo.List] cursor")
}

func (rr *RoomRepo) Update(ctx context.Context, room *rooms.Room) error {
	result, err := rr.collection.ReplaceOne(ctx,
		bson.M{"_id": room.ID, "user_id": room.UserID, "deleted_at": nil},
		toRoomDocument(room))
	if err != nil {
		return errors.Wrap(err, "[RoomRepo.Update] ReplaceOne")
	}
	if result.MatchedCount == 0 {
		return rooms.ErrRoomNotFound
	}
	return nil
}

func (rr *RoomRepo) SoftDelete(ctx context.Context, userID, roomID string, at time.Time) error {
	result, err := rr.collection.UpdateOne(ctx,
		bson.M{"_id": roomID, "user_id": userID, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": at, "updated_at": at}})
	if err != nil {
		return errors.Wrap(err, "[RoomRepo.SoftDelete] UpdateOne")
	}
	if result.MatchedCount == 0 {
		return rooms.ErrRoomNotFound
	}
	return nil
}

func (rr *RoomRepo) Restore(ctx context.Context, userID, roomID string, at time.Time) error {
	result, err := rr.collection.UpdateOne(ctx,
		bson.M{"_id": roomID, "user_id": userID, "deleted_at": bson.M{"$ne": nil}},
		bson.M{"$set": bson.M{"updated_at": at}, "$unset": bson.M{"deleted_at": ""}})
	if err != nil {
		return errors.Wrap(err, "[RoomRepo.Restore] UpdateOne")
	}
	if result.MatchedCount == 0 {
		return rooms.ErrRoomNotFound
	}
	return nil
}

func (rr *RoomRepo) findOne(ctx context.Context, filter bson.M) (*rooms.Room, error) {
	var doc roomDocument
	err := rr.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, rooms.ErrRoomNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RoomRepo.findOne] FindOne")
	}
	return fromRoomDocument(&doc), nil
}

func toRoomDocument(room *rooms.Room) *roomDocument {
	return &roomDocument{
		ID:        room.ID,
		UserID:    room.UserID,
		Name:      room.Name,
		Icon:      room.Icon,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
		DeletedAt: room.DeletedAt,
	}
}

func fromRoomDocument(doc *roomDocument) *rooms.Room {
	return &rooms.Room{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Name:      doc.Name,
		Icon:      doc.Icon,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		DeletedAt: doc.DeletedAt,
	}
}
