package clients

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/cleanhq/cleaner/scopes"
)

// ErrInvalidClient is the single error returned for every authentication
// failure. Unknown ID, wrong secret and type mismatch are indistinguishable
// to the caller.
var ErrInvalidClient = errors.New("invalid client credentials")

const secretLength = 24 // bytes of entropy; hex doubles the length

// Service manages the client registry.
type Service struct {
	repo    Repo
	nowFunc func() time.Time
}

type ServiceOption func(*Service)

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(repo Repo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[clients.NewService] repo is required")
	}
	s := &Service{
		repo:    repo,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Create registers a client and returns it together with the plaintext
// secret. The secret is shown exactly once; only its bcrypt digest is stored.
// Public clients get no secret at all.
func (s *Service) Create(ctx context.Context, name string, redirectURIs []string, grantTypes []GrantType, scps scopes.Set, public bool) (*Client, string, error) {
	if name == "" {
		return nil, "", errors.New("[clients.Service.Create] name is required")
	}

	client := &Client{
		ID:           uuid.New().String(),
		Name:         name,
		RedirectURIs: redirectURIs,
		GrantTypes:   grantTypes,
		Scopes:       scps.Clone(),
		Public:       public,
		CreatedAt:    s.nowFunc(),
	}
	if len(client.GrantTypes) == 0 {
		client.GrantTypes = []GrantType{GrantAuthorizationCode, GrantRefreshToken}
	}

	var secret string
	if !public {
		raw := make([]byte, secretLength)
		if _, err := rand.Read(raw); err != nil {
			return nil, "", errors.Wrap(err, "[clients.Service.Create] rand.Read")
		}
		secret = hex.EncodeToString(raw)

		digest, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", errors.Wrap(err, "[clients.Service.Create] GenerateFromPassword")
		}
		client.SecretDigest = string(digest)
	}

	if err := s.repo.Create(ctx, client); err != nil {
		return nil, "", errors.Wrap(err, "[clients.Service.Create] repo.Create")
	}
	return client, secret, nil
}

// Authenticate verifies client credentials. Confidential clients must present
// the correct secret; public clients must present none.
func (s *Service) Authenticate(ctx context.Context, clientID, secret string) (*Client, error) {
	client, err := s.repo.Get(ctx, clientID)
	if err != nil {
		return nil, ErrInvalidClient
	}

	if client.IsPublic() {
		if secret != "" {
			return nil, ErrInvalidClient
		}
		return client, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(client.SecretDigest), []byte(secret)) != nil {
		return nil, ErrInvalidClient
	}
	return client, nil
}

// Get looks a client up without authenticating it.
func (s *Service) Get(ctx context.Context, clientID string) (*Client, error) {
	return s.repo.Get(ctx, clientID)
}

// List returns every registered client.
func (s *Service) List(ctx context.Context) ([]*Client, error) {
	return s.repo.List(ctx)
}
