// Package zones holds the zone entity: a cleanable area within a room with a
// recurrence schedule that yields a due date.
package zones

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Frequency is the recurrence schedule of a zone.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

// ParseFrequency validates the wire value.
func ParseFrequency(raw string) (Frequency, error) {
	switch Frequency(raw) {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return Frequency(raw), nil
	}
	return "", fmt.Errorf("unknown frequency %q", raw)
}

type Zone struct {
	ID                 string     `json:"id"`
	RoomID             string     `json:"room_id"`
	UserID             string     `json:"-"`
	Name               string     `json:"name"`
	Icon               string     `json:"icon,omitempty"`
	Frequency          Frequency  `json:"frequency"`
	CustomIntervalDays *int       `json:"custom_interval_days,omitempty"`
	LastCleanedAt      *time.Time `json:"last_cleaned_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"-"`
}

// Deleted reports whether the zone is soft-deleted.
func (z *Zone) Deleted() bool {
	return z.DeletedAt != nil
}

// Interval is the cleaning recurrence as a duration. Monthly is a fixed 30
// days.
func (z *Zone) Interval() time.Duration {
	switch z.Frequency {
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	case FrequencyCustom:
		if z.CustomIntervalDays == nil {
			return 24 * time.Hour
		}
		return time.Duration(*z.CustomIntervalDays) * 24 * time.Hour
	}
	return 24 * time.Hour
}

// NextDue computes when the zone next needs cleaning. A zone that was never
// cleaned is due immediately.
func (z *Zone) NextDue(now time.Time) time.Time {
	if z.LastCleanedAt == nil {
		return now
	}
	return z.LastCleanedAt.Add(z.Interval())
}

// IsDue reports whether the zone needs cleaning at the given instant.
func (z *Zone) IsDue(now time.Time) bool {
	return !z.NextDue(now).After(now)
}

// View is the API shape of a zone with its computed schedule fields.
type View struct {
	*Zone
	NextDue time.Time `json:"next_due"`
	IsDue   bool      `json:"is_due"`
}

// NewView computes the derived fields at the given instant.
func NewView(zone *Zone, now time.Time) *View {
	return &View{
		Zone:    zone,
		NextDue: zone.NextDue(now),
		IsDue:   zone.IsDue(now),
	}
}

var ErrBadHorizon = errors.New("invalid horizon, expected forms like 7d, 24h or 2w")

// ParseHorizon parses a lookahead window like "7d", "24h" or "2w". An empty
// value defaults to seven days.
func ParseHorizon(raw string) (time.Duration, error) {
	if raw == "" {
		return 7 * 24 * time.Hour, nil
	}
	if len(raw) < 2 {
		return 0, ErrBadHorizon
	}

	unit := raw[len(raw)-1]
	count, err := strconv.Atoi(strings.TrimSpace(raw[:len(raw)-1]))
	if err != nil || count < 0 {
		return 0, ErrBadHorizon
	}

	switch unit {
	case 'h':
		return time.Duration(count) * time.Hour, nil
	case 'd':
		return time.Duration(count) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(count) * 7 * 24 * time.Hour, nil
	}
	return 0, ErrBadHorizon
}
