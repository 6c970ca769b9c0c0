package token

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/oauthmodel"
	"github.com/cleanhq/cleaner/scopes"
)

var (
	ErrTokenRevoked   = errors.New("token revoked")
	ErrClientMismatch = errors.New("token issued to a different client")
)

const (
	defaultAccessTokenTTL  = time.Hour
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Manager mints token pairs, authenticates bearer tokens, and implements
// introspection and revocation on top of the codec and the record store.
type Manager struct {
	codec      *Codec
	repo       Repo
	cache      Cache
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

type ManagerOption func(*Manager)

// WithTokenTTLs overrides the access and refresh token lifetimes.
func WithTokenTTLs(accessTTL, refreshTTL time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTTL = accessTTL
		m.refreshTTL = refreshTTL
	}
}

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithCache installs a validated-token cache on the authentication path.
func WithCache(cache Cache) ManagerOption {
	return func(m *Manager) {
		m.cache = cache
	}
}

func NewManager(codec *Codec, repo Repo, options ...ManagerOption) (*Manager, error) {
	if codec == nil {
		return nil, errors.New("[NewManager] codec is required")
	}
	if repo == nil {
		return nil, errors.New("[NewManager] repo is required")
	}

	m := &Manager{
		codec:      codec,
		repo:       repo,
		cache:      nopCache{},
		accessTTL:  defaultAccessTokenTTL,
		refreshTTL: defaultRefreshTokenTTL,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// IssuePair mints an access/refresh token pair for a user grant and stores a
// record for each.
func (m *Manager) IssuePair(ctx context.Context, userID, clientID string, scps scopes.Set) (*oauthmodel.TokenResponse, error) {
	access, err := m.issue(ctx, userID, clientID, scps, KindAccess, m.accessTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssuePair] access")
	}
	refresh, err := m.issue(ctx, userID, clientID, scps, KindRefresh, m.refreshTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssuePair] refresh")
	}

	return &oauthmodel.TokenResponse{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int(m.accessTTL.Seconds()),
		RefreshToken: refresh,
		Scope:        scps.String(),
	}, nil
}

// IssueAccessOnly mints a bare access token for the client-credentials grant.
// The subject is the client itself and no refresh token is issued.
func (m *Manager) IssueAccessOnly(ctx context.Context, clientID string, scps scopes.Set) (*oauthmodel.TokenResponse, error) {
	raw, jti, err := m.codec.Issue(clientID, clientID, scps, KindAccess, m.accessTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssueAccessOnly] Issue")
	}
	if err := m.repo.Store(ctx, &Record{
		JTIHash:   HashID(jti),
		Kind:      KindAccess,
		ClientID:  clientID,
		Scopes:    scps.Clone(),
		ExpiresAt: m.nowFunc().Add(m.accessTTL),
		CreatedAt: m.nowFunc(),
	}); err != nil {
		return nil, errors.Wrap(err, "[Manager.IssueAccessOnly] Store")
	}

	return &oauthmodel.TokenResponse{
		AccessToken: raw,
		TokenType:   "Bearer",
		ExpiresIn:   int(m.accessTTL.Seconds()),
		Scope:       scps.String(),
	}, nil
}

// Refresh redeems a refresh token for a fresh pair. Rotation is
// unconditional: the presented token is revoked before the new pair is
// minted, and concurrent redemptions of the same token produce exactly one
// winner.
func (m *Manager) Refresh(ctx context.Context, rawRefresh, clientID string) (*oauthmodel.TokenResponse, error) {
	claims, err := m.codec.Verify(rawRefresh, KindRefresh)
	if err != nil {
		return nil, err
	}

	hash := HashID(claims.JTI)
	record, err := m.repo.Get(ctx, hash, KindRefresh)
	if err != nil {
		return nil, err
	}
	if record.Revoked {
		return nil, ErrTokenRevoked
	}
	if !m.nowFunc().Before(record.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	if record.ClientID != clientID {
		return nil, ErrClientMismatch
	}

	won, err := m.repo.RevokeActive(ctx, hash, KindRefresh)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Refresh] RevokeActive")
	}
	if !won {
		return nil, ErrTokenRevoked
	}
	m.cache.Delete(ctx, hash)

	return m.IssuePair(ctx, record.UserID, record.ClientID, record.Scopes)
}

// Authenticate validates a bearer access token for the middleware: signature,
// expiry, kind, and a live record.
func (m *Manager) Authenticate(ctx context.Context, rawAccess string) (*Claims, error) {
	claims, err := m.codec.Verify(rawAccess, KindAccess)
	if err != nil {
		return nil, err
	}

	hash := HashID(claims.JTI)
	if record, ok := m.cache.Get(ctx, hash); ok {
		if !record.Active(m.nowFunc()) {
			return nil, ErrTokenRevoked
		}
		return claims, nil
	}

	record, err := m.repo.Get(ctx, hash, KindAccess)
	if err != nil {
		return nil, err
	}
	if record.Revoked {
		return nil, ErrTokenRevoked
	}
	if !m.nowFunc().Before(record.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	m.cache.Set(ctx, record)
	return claims, nil
}

// Introspect resolves a token of either kind into the RFC 7662 response
// shape. Every validation failure collapses to active:false; only storage
// failures surface as errors.
func (m *Manager) Introspect(ctx context.Context, raw string) (*oauthmodel.IntrospectionResponse, error) {
	inactive := &oauthmodel.IntrospectionResponse{Active: false}

	claims, err := m.codec.VerifyAny(raw)
	if err != nil {
		return inactive, nil
	}

	record, err := m.repo.Get(ctx, HashID(claims.JTI), claims.Kind)
	if errors.Is(err, ErrRecordNotFound) {
		return inactive, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Introspect] Get")
	}
	if !record.Active(m.nowFunc()) {
		return inactive, nil
	}

	return &oauthmodel.IntrospectionResponse{
		Active:    true,
		Scope:     claims.Scopes.String(),
		ClientID:  claims.ClientID,
		Sub:       claims.Subject,
		TokenType: string(claims.Kind),
		Exp:       claims.ExpiresAt.Unix(),
		Iat:       claims.IssuedAt.Unix(),
		JTI:       claims.JTI,
	}, nil
}

// Revoke invalidates a token of either kind. Unknown or malformed input is a
// silent no-op so the endpoint can always answer 200. Revoking a refresh
// token cascades to the access tokens issued alongside it.
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	claims, err := m.codec.VerifyAny(raw)
	if err != nil {
		return nil
	}

	hash := HashID(claims.JTI)
	found, err := m.repo.Revoke(ctx, hash, claims.Kind)
	if err != nil {
		return errors.Wrap(err, "[Manager.Revoke] Revoke")
	}

	switch claims.Kind {
	case KindAccess:
		m.cache.Delete(ctx, hash)
	case KindRefresh:
		if !found {
			return nil
		}
		if err := m.repo.RevokeAllForOwner(ctx, claims.ClientID, claims.Subject, KindAccess); err != nil {
			return errors.Wrap(err, "[Manager.Revoke] RevokeAllForOwner")
		}
		// Cascade cannot name individual jti hashes, so the cache is dropped
		// wholesale.
		m.cache.Clear(ctx)
	}
	return nil
}

func (m *Manager) issue(ctx context.Context, userID, clientID string, scps scopes.Set, kind Kind, ttl time.Duration) (string, error) {
	raw, jti, err := m.codec.Issue(userID, clientID, scps, kind, ttl)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.issue] Issue")
	}
	if err := m.repo.Store(ctx, &Record{
		JTIHash:   HashID(jti),
		Kind:      kind,
		ClientID:  clientID,
		UserID:    userID,
		Scopes:    scps.Clone(),
		ExpiresAt: m.nowFunc().Add(ttl),
		CreatedAt: m.nowFunc(),
	}); err != nil {
		return "", errors.Wrap(err, "[Manager.issue] Store")
	}
	return raw, nil
}

// nopCache is the default when no cache is configured.
type nopCache struct{}

func (nopCache) Get(context.Context, string) (*Record, bool) { return nil, false }
func (nopCache) Set(context.Context, *Record)                {}
func (nopCache) Delete(context.Context, string)              {}
func (nopCache) Clear(context.Context)                       {}
