package fakezonerepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cleanhq/cleaner/zones"
)

var _ zones.Repo = (*FakeZoneRepo)(nil)

type FakeZoneRepo struct {
	zones map[string]*zones.Zone
	lock  sync.RWMutex
}

func NewFakeZoneRepo() *FakeZoneRepo {
	return &FakeZoneRepo{
		zones: make(map[string]*zones.Zone),
	}
}

func (zr *FakeZoneRepo) Create(_ context.Context, zone *zones.Zone) error {
	zr.lock.Lock()
	defer zr.lock.Unlock()

	copied := *zone
	zr.zones[zone.ID] = &copied
	return nil
}

func (zr *FakeZoneRepo) Get(_ context.Context, userID, zoneID string) (*zones.Zone, error) {
	zr.lock.RLock()
	defer zr.lock.RUnlock()

	zone, ok := zr.zones[zoneID]
	if !ok || zone.UserID != userID || zone.Deleted() {
		return nil, zones.ErrZoneNotFound
	}
	copied := *zone
	return &copied, nil
}

func (zr *FakeZoneRepo) ListByRoom(_ context.Context, userID, roomID string) ([]*zones.Zone, error) {
	zr.lock.RLock()
	defer zr.lock.RUnlock()

	list := make([]*zones.Zone, 0)
	for _, zone := range zr.zones {
		if zone.UserID == userID && zone.RoomID == roomID && !zone.Deleted() {
			copied := *zone
			list = append(list, &copied)
		}
	}
	sortZones(list)
	return list, nil
}

func (zr *FakeZoneRepo) ListByUser(_ context.Context, userID string) ([]*zones.Zone, error) {
	zr.lock.RLock()
	defer zr.lock.RUnlock()

	list := make([]*zones.Zone, 0)
	for _, zone := range zr.zones {
		if zone.UserID == userID && !zone.Deleted() {
			copied := *zone
			list = append(list, &copied)
		}
	}
	sortZones(list)
	return list, nil
}

func (zr *FakeZoneRepo) Update(_ context.Context, zone *zones.Zone) error {
	zr.lock.Lock()
	defer zr.lock.Unlock()

	existing, ok := zr.zones[zone.ID]
	if !ok || existing.UserID != zone.UserID || existing.Deleted() {
		return zones.ErrZoneNotFound
	}
	copied := *zone
	zr.zones[zone.ID] = &copied
	return nil
}

func (zr *FakeZoneRepo) SoftDelete(_ context.Context, userID, zoneID string, at time.Time) error {
	zr.lock.Lock()
	defer zr.lock.Unlock()

	zone, ok := zr.zones[zoneID]
	if !ok || zone.UserID != userID || zone.Deleted() {
		return zones.ErrZoneNotFound
	}
	deletedAt := at
	zone.DeletedAt = &deletedAt
	zone.UpdatedAt = at
	return nil
}

func (zr *FakeZoneRepo) SoftDeleteByRoom(_ context.Context, userID, roomID string, at time.Time) error {
	zr.lock.Lock()
	defer zr.lock.Unlock()

	for _, zone := range zr.zones {
		if zone.UserID == userID && zone.RoomID == roomID && !zone.Deleted() {
			deletedAt := at
			zone.DeletedAt = &deletedAt
			zone.UpdatedAt = at
		}
	}
	return nil
}

func (zr *FakeZoneRepo) RestoreByRoom(_ context.Context, userID, roomID string, at time.Time) error {
	zr.lock.Lock()
	defer zr.lock.Unlock()

	for _, zone := range zr.zones {
		if zone.UserID == userID && zone.RoomID == roomID && zone.Deleted() {
			zone.DeletedAt = nil
			zone.UpdatedAt = at
		}
	}
	return nil
}

func sortZones(list []*zones.Zone) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
