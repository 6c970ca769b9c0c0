package fakeroomrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cleanhq/cleaner/rooms"
)

var _ rooms.Repo = (*FakeRoomRepo)(nil)

type FakeRoomRepo struct {
	rooms map[string]*rooms.Room
	lock  sync.RWMutex
}

func NewFakeRoomRepo() *FakeRoomRepo {
	return &FakeRoomRepo{
		rooms: make(map[string]*rooms.Room),
	}
}

func (rr *FakeRoomRepo) Create(_ context.Context, room *rooms.Room) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	copied := *room
	rr.rooms[room.ID] = &copied
	return nil
}

func (rr *FakeRoomRepo) Get(_ context.Context, userID, roomID string) (*rooms.Room, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	room, ok := rr.rooms[roomID]
	if !ok || room.UserID != userID || room.Deleted() {
		return nil, rooms.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (rr *FakeRoomRepo) GetDeleted(_ context.Context, userID, roomID string) (*rooms.Room, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	room, ok := rr.rooms[roomID]
	if !ok || room.UserID != userID || !room.Deleted() {
		return nil, rooms.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (rr *FakeRoomRepo) List(_ context.Context, userID string) ([]*rooms.Room, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	list := make([]*rooms.Room, 0)
	for _, room := range rr.rooms {
		if room.UserID == userID && !room.Deleted() {
			copied := *room
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (rr *FakeRoomRepo) Update(_ context.Context, room *rooms.Room) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	existing, ok := rr.rooms[room.ID]
	if !ok || existing.UserID != room.UserID || existing.Deleted() {
		return rooms.ErrRoomNotFound
	}
	copied := *room
	rr.rooms[room.ID] = &copied
	return nil
}

func (rr *FakeRoomRepo) SoftDelete(_ context.Context, userID, roomID string, at time.Time) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	room, ok := rr.rooms[roomID]
	if !ok || room.UserID != userID || room.Deleted() {
		return rooms.ErrRoomNotFound
	}
	deletedAt := at
	room.DeletedAt = &deletedAt
	room.UpdatedAt = at
	return nil
}

func (rr *FakeRoomRepo) Restore(_ context.Context, userID, roomID string, at time.Time) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	room, ok := rr.rooms[roomID]
	if !ok || room.UserID != userID || !room.Deleted() {
		return rooms.ErrRoomNotFound
	}
	room.DeletedAt = nil
	room.UpdatedAt = at
	return nil
}
