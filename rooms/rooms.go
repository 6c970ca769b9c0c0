// Package rooms holds the room entity: a physical space owned by a user,
// containing cleanable zones.
package rooms

import "time"

type Room struct {
	ID        string     `json:"id"`
	UserID    string     `json:"-"`
	Name      string     `json:"name"`
	Icon      string     `json:"icon,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the room is soft-deleted.
func (r *Room) Deleted() bool {
	return r.DeletedAt != nil
}
