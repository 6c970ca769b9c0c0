package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/oauthmodel"
	"github.com/cleanhq/cleaner/scopes"
)

var ErrCodeNotFound = errors.New("authorization code not found")

// Code is a pending authorization grant: the approved scopes, the PKCE
// commitment and the redirect binding, waiting to be redeemed exactly once at
// the token endpoint.
type Code struct {
	Code                string
	ClientID            string
	UserID              string
	RedirectURI         string
	Scopes              scopes.Set
	CodeChallenge       string
	CodeChallengeMethod oauthmodel.ChallengeMethod
	ExpiresAt           time.Time
	CreatedAt           time.Time
}

// CodeRepo stores authorization codes.
type CodeRepo interface {
	Store(ctx context.Context, code *Code) error

	// Consume atomically removes and returns the code. Of any number of
	// concurrent redemptions exactly one receives the code; the rest get
	// ErrCodeNotFound.
	Consume(ctx context.Context, code string) (*Code, error)
}
