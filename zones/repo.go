package zones

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrZoneNotFound covers missing, deleted and foreign-owned zones alike.
var ErrZoneNotFound = errors.New("zone not found")

type Repo interface {
	Create(ctx context.Context, zone *Zone) error

	// Get returns a live zone owned by userID.
	Get(ctx context.Context, userID, zoneID string) (*Zone, error)

	ListByRoom(ctx context.Context, userID, roomID string) ([]*Zone, error)
	ListByUser(ctx context.Context, userID string) ([]*Zone, error)
	Update(ctx context.Context, zone *Zone) error
	SoftDelete(ctx context.Context, userID, zoneID string, at time.Time) error

	// SoftDeleteByRoom and RestoreByRoom implement the room delete/restore
	// cascade.
	SoftDeleteByRoom(ctx context.Context, userID, roomID string, at time.Time) error
	RestoreByRoom(ctx context.Context, userID, roomID string, at time.Time) error
}
