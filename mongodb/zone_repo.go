package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/cleanhq/cleaner/zones"
)

var _ zones.Repo = (*ZoneRepo)(nil)

type ZoneRepo struct {
	collection *mongo.Collection
}

func NewZoneRepo(db *mongo.Database) *ZoneRepo {
	return &ZoneRepo{collection: db.Collection(zonesCollection)}
}

type zoneDocument struct {
	ID                 string     `bson:"_id"`
	RoomID             string     `bson:"room_id"`
	UserID             string     `bson:"user_id"`
	Name               string     `bson:"name"`
	Icon               string     `bson:"icon,omitempty"`
	Frequency          string     `bson:"frequency"`
	CustomIntervalDays *int       `bson:"custom_interval_days,omitempty"`
	LastCleanedAt      *time.Time `bson:"last_cleaned_at,omitempty"`
	CreatedAt          time.Time  `bson:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at"`
	DeletedAt          *time.Time `bson:"deleted_at,omitempty"`
}

func (zr *ZoneRepo) Create(ctx context.Context, zone *zones.Zone) error {
	if _, err := zr.collection.InsertOne(ctx, toZoneDocument(zone)); err != nil {
		return errors.Wrap(err, "[ZoneRepo.Create] InsertOne")
	}
	return nil
}

func (zr *ZoneRepo) Get(ctx context.Context, userID, zoneID string) (*zones.Zone, error) {
	var doc zoneDocument
	err := zr.collection.FindOne(ctx, bson.M{"_id": zoneID, "user_id": userID, "deleted_at": nil}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, zones.ErrZoneNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[ZoneRepo.Get] FindOne")
	}
	return fromZoneDocument(&doc), nil
}

func (zr *ZoneRepo) ListByRoom(ctx context.Context, userID, roomID string) ([]*zones.Zone, error) {
	return zr.find(ctx, bson.M{"user_id": userID, "room_id": roomID, "deleted_at": nil})
}

func (zr *ZoneRepo) ListByUser(ctx context.Context, userID string) ([]*zones.Zone, error) {
	return zr.find(ctx, bson.M{"user_id": userID, "deleted_at": nil})
}

func (zr *ZoneRepo) Update(ctx context.Context, zone *zones.Zone) error {
	result, err := zr.collection.ReplaceOne(ctx,
		bson.M{"_id": zone.ID, "user_id": zone.UserID, "deleted_at": nil},
		toZoneDocument(zone))
	if err != nil {
		return errors.Wrap(err, "[ZoneRepo.Update] ReplaceOne")
	}
	if result.MatchedCount == 0 {
		return zones.ErrZoneNotFound
	}
	return nil
}

func (zr *ZoneRepo) SoftDelete(ctx context.Context, userID, zoneID string, at time.Time) error {
	result, err := zr.collection.UpdateOne(ctx,
		bson.M{"_id": zoneID, "user_id": userID, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": at, "updated_at": at}})
	if err != nil {
		return errors.Wrap(err, "[ZoneRepo.SoftDelete] UpdateOne")
	}
	if result.MatchedCount == 0 {
		return zones.ErrZoneNotFound
	}
	return nil
}

func (zr *ZoneRepo) SoftDeleteByRoom(ctx context.Context, userID, roomID string, at time.Time) error {
	_, err := zr.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "room_id": roomID, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": at, "updated_at": at}})
	return errors.Wrap(err, "[ZoneRepo.SoftDeleteByRoom] UpdateMany")
}

func (zr *ZoneRepo) RestoreByRoom(ctx context.Context, userID, roomID string, at time.Time) error {
	_, err := zr.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "room_id": roomID, "deleted_at": bson.M{"$ne": nil}},
		bson.M{"$set": bson.M{"updated_at": at}, "$unset": bson.M{"deleted_at": ""}})
	return errors.Wrap(err, "[ZoneRepo.RestoreByRoom] UpdateMany")
}

func (zr *ZoneRepo) find(ctx context.Context, filter bson.M) ([]*zones.Zone, error) {
	cursor, err := zr.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "[ZoneRepo.find] Find")
	}
	defer cursor.Close(ctx)

	list := make([]*zones.Zone, 0)
	for cursor.Next(ctx) {
		var doc zoneDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "[ZoneRepo.find] Decode")
		}
		list = append(list, fromZoneDocument(&doc))
	}
	return list, errors.Wrap(cursor.Err(), "[ZoneRepo.find] cursor")
}

func toZoneDocument(zone *zones.Zone) *zoneDocument {
	return &zoneDocument{
		ID:                 zone.ID,
		RoomID:             zone.RoomID,
		UserID:             zone.UserID,
		Name:               zone.Name,
		Icon:               zone.Icon,
		Frequency:          string(zone.Frequency),
		CustomIntervalDays: zone.CustomIntervalDays,
		LastCleanedAt:      zone.LastCleanedAt,
		CreatedAt:          zone.CreatedAt,
		UpdatedAt:          zone.UpdatedAt,
		DeletedAt:          zone.DeletedAt,
	}
}

func fromZoneDocument(doc *zoneDocument) *zones.Zone {
	return &zones.Zone{
		ID:                 doc.ID,
		RoomID:             doc.RoomID,
		UserID:             doc.UserID,
		Name:               doc.Name,
		Icon:               doc.Icon,
		Frequency:          zones.Frequency(doc.Frequency),
		CustomIntervalDays: doc.CustomIntervalDays,
		LastCleanedAt:      doc.LastCleanedAt,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
		DeletedAt:          doc.DeletedAt,
	}
}
