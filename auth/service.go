// Package auth implements the authorization-code flow and the token-endpoint
// grant dispatcher.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/clients"
	"github.com/cleanhq/cleaner/oauthmodel"
	"github.com/cleanhq/cleaner/scopes"
	"github.com/cleanhq/cleaner/token"
	"github.com/cleanhq/cleaner/users"
)

const (
	codeGenerationLength = 32
	defaultCodeTTL       = 10 * time.Minute
)

// Deps holds the dependencies of the AuthorizationService.
type Deps struct {
	Codes   CodeRepo
	Clients *clients.Service
	Users   *users.Service
	Tokens  *token.Manager
}

// AuthorizationService drives the authorization-code flow and handles OAuth2
// token requests.
type AuthorizationService struct {
	deps    Deps
	codeTTL time.Duration
	nowTime func() time.Time
}

type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// WithCodeTTL overrides the authorization-code lifetime.
func WithCodeTTL(ttl time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.codeTTL = ttl
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(deps Deps, options ...AuthorizationServiceOption) (*AuthorizationService, error) {
	if deps.Codes == nil {
		return nil, errors.New("[NewAuthorizationService] Codes repo is required")
	}
	if deps.Clients == nil {
		return nil, errors.New("[NewAuthorizationService] Clients service is required")
	}
	if deps.Users == nil {
		return nil, errors.New("[NewAuthorizationService] Users service is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("[NewAuthorizationService] Tokens manager is required")
	}

	authService := &AuthorizationService{
		deps:    deps,
		codeTTL: defaultCodeTTL,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(authService)
	}
	return authService, nil
}

// PendingAuthorization is a validated authorize request waiting for the
// resource owner's decision.
type PendingAuthorization struct {
	Client *clients.Client
	Scopes scopes.Set
	Params *oauthmodel.AuthorizeParameters
}

// Authorize validates a GET /oauth/authorize request. The client and the
// redirect URI are checked before anything else; their failures return plain
// errors that must render as an error page. Everything after that returns a
// *RedirectError delivered to the (now trusted) redirect URI.
func (as *AuthorizationService) Authorize(ctx context.Context, params *oauthmodel.AuthorizeParameters) (*PendingAuthorization, error) {
	client, err := as.deps.Clients.Get(ctx, params.ClientID)
	if err != nil {
		return nil, ErrUnknownClient
	}
	if !client.AllowsRedirectURI(params.RedirectURI) {
		return nil, ErrRedirectURIMismatch
	}

	fail := func(code oauthmodel.ErrorCode, description string) error {
		return newRedirectError(params.RedirectURI, params.State, code, description)
	}

	if params.ResponseType != oauthmodel.ResponseTypeCode {
		return nil, fail(oauthmodel.ErrUnsupportedResponseType, "only response_type=code is supported")
	}
	if !client.AllowsGrantType(clients.GrantAuthorizationCode) {
		return nil, fail(oauthmodel.ErrUnauthorizedClient, "client may not use the authorization_code grant")
	}

	requested, err := scopes.Parse(params.Scope)
	if err != nil {
		return nil, fail(oauthmodel.ErrInvalidScope, err.Error())
	}
	if requested.IsEmpty() {
		requested = client.Scopes.Clone()
	}
	if !client.AllowsScopes(requested) {
		return nil, fail(oauthmodel.ErrInvalidScope, "requested scope exceeds the client grant")
	}

	if params.CodeChallenge != "" && params.CodeChallengeMethod == "" {
		params.CodeChallengeMethod = oauthmodel.ChallengeMethodPlain
	}
	if params.CodeChallenge != "" && !oauthmodel.ValidChallengeMethod(params.CodeChallengeMethod) {
		return nil, fail(oauthmodel.ErrInvalidRequest, "unsupported code_challenge_method")
	}
	if client.IsPublic() && params.CodeChallenge == "" {
		return nil, fail(oauthmodel.ErrInvalidRequest, "PKCE is required for public clients")
	}

	return &PendingAuthorization{
		Client: client,
		Scopes: requested,
		Params: params,
	}, nil
}

// Consent resolves the resource owner's decision on a pending authorization.
// Approval mints a single-use code bound to the redirect URI and the PKCE
// commitment. Denial returns a *RedirectError with access_denied. A failed
// credential check returns users.ErrInvalidCredentials so the consent page
// can be re-rendered.
func (as *AuthorizationService) Consent(ctx context.Context, pending *PendingAuthorization, email, password string, approved bool) (string, error) {
	params := pending.Params

	if !approved {
		return "", newRedirectError(params.RedirectURI, params.State, oauthmodel.ErrAccessDenied, "the resource owner denied the request")
	}

	user, err := as.deps.Users.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}

	code, err := generateCode()
	if err != nil {
		return "", errors.Wrap(err, "[AuthorizationService.Consent] generateCode")
	}

	now := as.nowTime()
	if err := as.deps.Codes.Store(ctx, &Code{
		Code:                code,
		ClientID:            pending.Client.ID,
		UserID:              user.ID,
		RedirectURI:         params.RedirectURI,
		Scopes:              pending.Scopes.Clone(),
		CodeChallenge:       params.CodeChallenge,
		CodeChallengeMethod: params.CodeChallengeMethod,
		ExpiresAt:           now.Add(as.codeTTL),
		CreatedAt:           now,
	}); err != nil {
		return "", errors.Wrap(err, "[AuthorizationService.Consent] Codes.Store")
	}
	return code, nil
}

// Token handles the OAuth 2.0 token request. Every failure is a typed
// *oauthmodel.Error carrying the RFC 6749 error code.
func (as *AuthorizationService) Token(ctx context.Context, req *oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	switch clients.GrantType(req.GrantType) {
	case clients.GrantAuthorizationCode:
		return as.handleAuthorizationCode(ctx, req)
	case clients.GrantRefreshToken:
		return as.handleRefreshToken(ctx, req)
	case clients.GrantClientCredentials:
		return as.handleClientCredentials(ctx, req)
	case clients.GrantPassword:
		return as.handlePassword(ctx, req)
	case "":
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidRequest, "grant_type is required")
	default:
		return nil, oauthmodel.NewError(oauthmodel.ErrUnsupportedGrantType, "unsupported grant_type "+req.GrantType)
	}
}

func (as *AuthorizationService) handleAuthorizationCode(ctx context.Context, req *oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	client, oauthErr := as.authenticateClient(ctx, req)
	if oauthErr != nil {
		return nil, oauthErr
	}
	if !client.AllowsGrantType(clients.GrantAuthorizationCode) {
		return nil, oauthmodel.NewError(oauthmodel.ErrUnauthorizedClient, "client may not use the authorization_code grant")
	}
	if req.Code == "" {
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidRequest, "code is required")
	}

	// Atomic take: a second redemption of the same code finds nothing.
	code, err := as.deps.Codes.Consume(ctx, req.Code)
	if err != nil {
		return nil, invalidGrant()
	}

	// Every check below collapses to invalid_grant so a stolen code leaks
	// nothing about which binding failed.
	if !as.nowTime().Before(code.ExpiresAt) {
		return nil, invalidGrant()
	}
	if code.ClientID != client.ID {
		return nil, invalidGrant()
	}
	if code.RedirectURI != req.RedirectURI {
		return nil, invalidGrant()
	}
	if !verifyCodeChallenge(code.CodeChallenge, code.CodeChallengeMethod, req.CodeVerifier) {
		return nil, invalidGrant()
	}

	resp, err := as.deps.Tokens.IssuePair(ctx, code.UserID, client.ID, code.Scopes)
	if err != nil {
		return nil, oauthmodel.NewError(oauthmodel.ErrServerError, "failed to issue tokens")
	}
	return resp, nil
}

func (as *AuthorizationService) handleRefreshToken(ctx context.Context, req *oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	client, oauthErr := as.authenticateClient(ctx, req)
	if oauthErr != nil {
		return nil, oauthErr
	}
	if !client.AllowsGrantType(clients.GrantRefreshToken) {
		return nil, oauthmodel.NewError(oauthmodel.ErrUnauthorizedClient, "client may not use the refresh_token grant")
	}
	if req.RefreshToken == "" {
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidRequest, "refresh_token is required")
	}

	resp, err := as.deps.Tokens.Refresh(ctx, req.RefreshToken, client.ID)
	if err != nil {
		if isTokenRejection(err) {
			return nil, invalidGrant()
		}
		return nil, oauthmodel.NewError(oauthmodel.ErrServerError, "failed to refresh tokens")
	}
	return resp, nil
}

func (as *AuthorizationService) handleClientCredentials(ctx context.Context, req *oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	client, oauthErr := as.authenticateClient(ctx, req)
	if oauthErr != nil {
		return nil, oauthErr
	}
	if client.IsPublic() {
		return nil, oauthmodel.NewError(oauthmodel.ErrUnauthorizedClient, "client_credentials requires a confidential client")
	}
	if !client.AllowsGrantType(clients.GrantClientCredentials) {
		return nil, oauthmodel.NewError(oauthmodel.ErrUnauthorizedClient, "client may not use the client_credentials grant")
	}

	requested, oauthErr := as.resolveScopes(req.Scope, client)
	if oauthErr != nil {
		return nil, oauthErr
	}

	resp, err := as.deps.Tokens.IssueAccessOnly(ctx, client.ID, requested)
	if err != nil {
		return nil, oauthmodel.NewError(oauthmodel.ErrServerError, "failed to issue tokens")
	}
	return resp, nil
}

// handlePassword implements the legacy resource-owner password grant.
func (as *AuthorizationService) handlePassword(ctx context.Context, req *oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	client, oauthErr := as.authenticateClient(ctx, req)
	if oauthErr != nil {
		return nil, oauthErr
	}
	if !client.AllowsGrantType(clients.GrantPassword) {
		return nil, oauthmodel.NewError(oauthmodel.ErrUnauthorizedClient, "client may not use the password grant")
	}
	if req.Username == "" || req.Password == "" {
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidRequest, "username and password are required")
	}

	user, err := as.deps.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, invalidGrant()
	}

	requested, err := scopes.Parse(req.Scope)
	if err != nil {
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidScope, err.Error())
	}
	if requested.IsEmpty() {
		requested = scopes.Default()
	}
	if !client.AllowsScopes(requested) {
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidScope, "requested scope exceeds the client grant")
	}

	resp, err := as.deps.Tokens.IssuePair(ctx, user.ID, client.ID, requested)
	if err != nil {
		return nil, oauthmodel.NewError(oauthmodel.ErrServerError, "failed to issue tokens")
	}
	return resp, nil
}

func (as *AuthorizationService) authenticateClient(ctx context.Context, req *oauthmodel.TokenRequest) (*clients.Client, *oauthmodel.Error) {
	if req.ClientID == "" {
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidRequest, "client_id is required")
	}
	client, err := as.deps.Clients.Authenticate(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidClient, "client authentication failed")
	}
	return client, nil
}

func (as *AuthorizationService) resolveScopes(raw string, client *clients.Client) (scopes.Set, *oauthmodel.Error) {
	requested, err := scopes.Parse(raw)
	if err != nil {
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidScope, err.Error())
	}
	if requested.IsEmpty() {
		return client.Scopes.Clone(), nil
	}
	if !client.AllowsScopes(requested) {
		return nil, oauthmodel.NewError(oauthmodel.ErrInvalidScope, "requested scope exceeds the client grant")
	}
	return requested, nil
}

func invalidGrant() *oauthmodel.Error {
	return oauthmodel.NewError(oauthmodel.ErrInvalidGrant, "the provided grant is invalid, expired or revoked")
}

func isTokenRejection(err error) bool {
	return errors.Is(err, token.ErrInvalidToken) ||
		errors.Is(err, token.ErrTokenExpired) ||
		errors.Is(err, token.ErrWrongTokenKind) ||
		errors.Is(err, token.ErrTokenRevoked) ||
		errors.Is(err, token.ErrClientMismatch) ||
		errors.Is(err, token.ErrRecordNotFound)
}

// verifyCodeChallenge checks the PKCE verifier against the challenge stored
// with the code. A challenge without a verifier, or a verifier without a
// challenge, fails.
func verifyCodeChallenge(storedChallenge string, method oauthmodel.ChallengeMethod, verifier string) bool {
	if storedChallenge == "" && verifier == "" {
		return true
	}
	if storedChallenge == "" || verifier == "" {
		return false
	}
	switch method {
	case oauthmodel.ChallengeMethodS256:
		hash := sha256.Sum256([]byte(verifier))
		derived := base64.RawURLEncoding.EncodeToString(hash[:])
		return subtle.ConstantTimeCompare([]byte(derived), []byte(storedChallenge)) == 1
	case oauthmodel.ChallengeMethodPlain:
		return subtle.ConstantTimeCompare([]byte(verifier), []byte(storedChallenge)) == 1
	}
	return false
}

func generateCode() (string, error) {
	bytes := make([]byte, codeGenerationLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
