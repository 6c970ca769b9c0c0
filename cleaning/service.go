// Package cleaning coordinates rooms and zones: CRUD with the soft-delete
// cascade, cleaning actions, due listings and the stats overview.
package cleaning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/rooms"
	"github.com/cleanhq/cleaner/zones"
)

// Service owns the cleaning domain. Every operation is scoped to the calling
// user; a resource owned by someone else behaves exactly like a missing one.
type Service struct {
	rooms   rooms.Repo
	zones   zones.Repo
	nowFunc func() time.Time
}

type ServiceOption func(*Service)

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(roomRepo rooms.Repo, zoneRepo zones.Repo, options ...ServiceOption) (*Service, error) {
	if roomRepo == nil {
		return nil, errors.New("[cleaning.NewService] room repo is required")
	}
	if zoneRepo == nil {
		return nil, errors.New("[cleaning.NewService] zone repo is required")
	}
	s := &Service{
		rooms:   roomRepo,
		zones:   zoneRepo,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// CreateRoom adds a room for the user.
func (s *Service) CreateRoom(ctx context.Context, userID, name, icon string) (*rooms.Room, error) {
	if name == "" {
		return nil, errors.New("[cleaning.Service.CreateRoom] name is required")
	}
	now := s.nowFunc()
	room := &rooms.Room{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Icon:      icon,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, errors.Wrap(err, "[cleaning.Service.CreateRoom] Create")
	}
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, userID, roomID string) (*rooms.Room, error) {
	return s.rooms.Get(ctx, userID, roomID)
}

func (s *Service) ListRooms(ctx context.Context, userID string) ([]*rooms.Room, error) {
	return s.rooms.List(ctx, userID)
}

// UpdateRoom renames the room or changes its icon.
func (s *Service) UpdateRoom(ctx context.Context, userID, roomID, name, icon string) (*rooms.Room, error) {
	room, err := s.rooms.Get(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if name != "" {
		room.Name = name
	}
	room.Icon = icon
	room.UpdatedAt = s.nowFunc()
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, errors.Wrap(err, "[cleaning.Service.UpdateRoom] Update")
	}
	return room, nil
}

// DeleteRoom soft-deletes the room and every zone in it.
func (s *Service) DeleteRoom(ctx context.Context, userID, roomID string) error {
	now := s.nowFunc()
	if err := s.rooms.SoftDelete(ctx, userID, roomID, now); err != nil {
		return err
	}
	if err := s.zones.SoftDeleteByRoom(ctx, userID, roomID, now); err != nil {
		return errors.Wrap(err, "[cleaning.Service.DeleteRoom] SoftDeleteByRoom")
	}
	return nil
}

// RestoreRoom undoes a soft delete, bringing the room's zones back with it.
func (s *Service) RestoreRoom(ctx context.Context, userID, roomID string) (*rooms.Room, error) {
	now := s.nowFunc()
	if err := s.rooms.Restore(ctx, userID, roomID, now); err != nil {
		return nil, err
	}
	if err := s.zones.RestoreByRoom(ctx, userID, roomID, now); err != nil {
		return nil, errors.Wrap(err, "[cleaning.Service.RestoreRoom] RestoreByRoom")
	}
	return s.rooms.Get(ctx, userID, roomID)
}

// NewZoneParams are the caller-supplied fields of a zone.
type NewZoneParams struct {
	Name               string
	Icon               string
	Frequency          zones.Frequency
	CustomIntervalDays *int
}

func (p *NewZoneParams) validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if _, err := zones.ParseFrequency(string(p.Frequency)); err != nil {
		return err
	}
	if p.Frequency == zones.FrequencyCustom {
		if p.CustomIntervalDays == nil || *p.CustomIntervalDays < 1 {
			return errors.New("custom frequency requires custom_interval_days >= 1")
		}
	} else if p.CustomIntervalDays != nil {
		return errors.New("custom_interval_days only applies to the custom frequency")
	}
	return nil
}

// CreateZone adds a zone to one of the user's rooms.
func (s *Service) CreateZone(ctx context.Context, userID, roomID string, params NewZoneParams) (*zones.Zone, error) {
	if err := params.validate(); err != nil {
		return nil, errors.Wrap(err, "[cleaning.Service.CreateZone]")
	}
	if _, err := s.rooms.Get(ctx, userID, roomID); err != nil {
		return nil, err
	}

	now := s.nowFunc()
	zone := &zones.Zone{
		ID:                 uuid.New().String(),
		RoomID:             roomID,
		UserID:             userID,
		Name:               params.Name,
		Icon:               params.Icon,
		Frequency:          params.Frequency,
		CustomIntervalDays: params.CustomIntervalDays,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.zones.Create(ctx, zone); err != nil {
		return nil, errors.Wrap(err, "[cleaning.Service.CreateZone] Create")
	}
	return zone, nil
}

func (s *Service) GetZone(ctx context.Context, userID, zoneID string) (*zones.View, error) {
	zone, err := s.zones.Get(ctx, userID, zoneID)
	if err != nil {
		return nil, err
	}
	return zones.NewView(zone, s.nowFunc()), nil
}

// ListZones returns the zones of one room with their schedule fields.
func (s *Service) ListZones(ctx context.Context, userID, roomID string) ([]*zones.View, error) {
	if _, err := s.rooms.Get(ctx, userID, roomID); err != nil {
		return nil, err
	}
	list, err := s.zones.ListByRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	return s.views(list), nil
}

// UpdateZone changes a zone's caller-supplied fields.
func (s *Service) UpdateZone(ctx context.Context, userID, zoneID string, params NewZoneParams) (*zones.View, error) {
	if err := params.validate(); err != nil {
		return nil, errors.Wrap(err, "[cleaning.Service.UpdateZone]")
	}
	zone, err := s.zones.Get(ctx, userID, zoneID)
	if err != nil {
		return nil, err
	}

	zone.Name = params.Name
	zone.Icon = params.Icon
	zone.Frequency = params.Frequency
	zone.CustomIntervalDays = params.CustomIntervalDays
	zone.UpdatedAt = s.nowFunc()
	if err := s.zones.Update(ctx, zone); err != nil {
		return nil, errors.Wrap(err, "[cleaning.Service.UpdateZone] Update")
	}
	return zones.NewView(zone, s.nowFunc()), nil
}

func (s *Service) DeleteZone(ctx context.Context, userID, zoneID string) error {
	return s.zones.SoftDelete(ctx, userID, zoneID, s.nowFunc())
}

// CleanZone marks the zone cleaned now, resetting its schedule.
func (s *Service) CleanZone(ctx context.Context, userID, zoneID string) (*zones.View, error) {
	zone, err := s.zones.Get(ctx, userID, zoneID)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc()
	zone.LastCleanedAt = &now
	zone.UpdatedAt = now
	if err := s.zones.Update(ctx, zone); err != nil {
		return nil, errors.Wrap(err, "[cleaning.Service.CleanZone] Update")
	}
	return zones.NewView(zone, now), nil
}

// BulkCleanResult reports the outcome of a bulk clean.
type BulkCleanResult struct {
	CleanedCount int      `json:"cleaned_count"`
	CleanedIDs   []string `json:"cleaned_ids"`
	SkippedIDs   []string `json:"skipped_ids,omitempty"`
}

// BulkClean marks several zones cleaned. Unknown or foreign IDs are skipped
// and reported, not failed.
func (s *Service) BulkClean(ctx context.Context, userID string, zoneIDs []string) (*BulkCleanResult, error) {
	result := &BulkCleanResult{CleanedIDs: make([]string, 0, len(zoneIDs))}
	for _, zoneID := range zoneIDs {
		if _, err := s.CleanZone(ctx, userID, zoneID); err != nil {
			if errors.Is(err, zones.ErrZoneNotFound) {
				result.SkippedIDs = append(result.SkippedIDs, zoneID)
				continue
			}
			return nil, err
		}
		result.CleanedIDs = append(result.CleanedIDs, zoneID)
	}
	result.CleanedCount = len(result.CleanedIDs)
	return result, nil
}

// DueZones lists zones already due or falling due within the horizon.
func (s *Service) DueZones(ctx context.Context, userID string, within time.Duration) ([]*zones.View, error) {
	list, err := s.zones.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc()
	cutoff := now.Add(within)
	due := make([]*zones.View, 0)
	for _, zone := range list {
		if !zone.NextDue(now).After(cutoff) {
			due = append(due, zones.NewView(zone, now))
		}
	}
	return due, nil
}

// Overview is the stats summary for a user's household.
type Overview struct {
	RoomsTotal        int     `json:"rooms_total"`
	ZonesTotal        int     `json:"zones_total"`
	ZonesDue          int     `json:"zones_due"`
	ZonesCleanedToday int     `json:"zones_cleaned_today"`
	CompletionRate    float64 `json:"completion_rate"`
}

// Stats computes the overview numbers.
func (s *Service) Stats(ctx context.Context, userID string) (*Overview, error) {
	roomList, err := s.rooms.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	zoneList, err := s.zones.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	overview := &Overview{
		RoomsTotal: len(roomList),
		ZonesTotal: len(zoneList),
	}
	for _, zone := range zoneList {
		if zone.IsDue(now) {
			overview.ZonesDue++
		}
		if zone.LastCleanedAt != nil && !zone.LastCleanedAt.Before(midnight) {
			overview.ZonesCleanedToday++
		}
	}
	if overview.ZonesTotal > 0 {
		overview.CompletionRate = float64(overview.ZonesTotal-overview.ZonesDue) / float64(overview.ZonesTotal)
	}
	return overview, nil
}

func (s *Service) views(list []*zones.Zone) []*zones.View {
	now := s.nowFunc()
	views := make([]*zones.View, 0, len(list))
	for _, zone := range list {
		views = append(views, zones.NewView(zone, now))
	}
	return views
}
