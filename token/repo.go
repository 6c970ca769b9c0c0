package token

import (
	"context"

	"github.com/pkg/errors"
)

var ErrRecordNotFound = errors.New("token record not found")

// Repo persists issued-token records keyed by jti hash.
type Repo interface {
	Store(ctx context.Context, record *Record) error

	// Get returns the record for the hash and kind, or ErrRecordNotFound.
	Get(ctx context.Context, jtiHash string, kind Kind) (*Record, error)

	// Revoke marks the record revoked regardless of its current state and
	// reports whether a record was found. Safe to call twice.
	Revoke(ctx context.Context, jtiHash string, kind Kind) (bool, error)

	// RevokeActive marks the record revoked only if it is not already.
	// Exactly one of any number of concurrent callers gets true; losers get
	// false. This is the winner selection for refresh rotation.
	RevokeActive(ctx context.Context, jtiHash string, kind Kind) (bool, error)

	// RevokeAllForOwner revokes every record of the kind issued to the
	// client/user pair. Cascade path for refresh revocation.
	RevokeAllForOwner(ctx context.Context, clientID, userID string, kind Kind) error
}

// Cache holds validated records so the hot authentication path can skip the
// repository. Implementations live in token/cache and token/cache/redis.
type Cache interface {
	Get(ctx context.Context, jtiHash string) (*Record, bool)
	Set(ctx context.Context, record *Record)
	Delete(ctx context.Context, jtiHash string)

	// Clear drops everything. Called after cascade revocation, which cannot
	// name the individual hashes it touched.
	Clear(ctx context.Context)
}
