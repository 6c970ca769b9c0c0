package rooms

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrRoomNotFound covers both a missing room and a room owned by someone
// else; callers cannot tell the two apart.
var ErrRoomNotFound = errors.New("room not found")

type Repo interface {
	Create(ctx context.Context, room *Room) error

	// Get returns a live (non-deleted) room owned by userID.
	Get(ctx context.Context, userID, roomID string) (*Room, error)

	// GetDeleted returns a soft-deleted room owned by userID, for restore.
	GetDeleted(ctx context.Context, userID, roomID string) (*Room, error)

	List(ctx context.Context, userID string) ([]*Room, error)
	Update(ctx context.Context, room *Room) error
	SoftDelete(ctx context.Context, userID, roomID string, at time.Time) error
	Restore(ctx context.Context, userID, roomID string, at time.Time) error
}
