package token

import (
	"time"

	"github.com/cleanhq/cleaner/scopes"
)

// Record is the stored side of an issued token. UserID is empty for
// client-credentials tokens.
type Record struct {
	JTIHash   string
	Kind      Kind
	ClientID  string
	UserID    string
	Scopes    scopes.Set
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// Active reports whether the record is usable at the given instant.
func (r *Record) Active(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}
