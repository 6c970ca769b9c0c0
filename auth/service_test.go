package auth_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleanhq/cleaner/auth"
	fakecoderepo "github.com/cleanhq/cleaner/auth/repofakes"
	"github.com/cleanhq/cleaner/clients"
	fakeclientrepo "github.com/cleanhq/cleaner/clients/fakerepo"
	"github.com/cleanhq/cleaner/oauthmodel"
	"github.com/cleanhq/cleaner/scopes"
	"github.com/cleanhq/cleaner/token"
	tokenfakerepo "github.com/cleanhq/cleaner/token/repofake"
	"github.com/cleanhq/cleaner/users"
	fakeuserrepo "github.com/cleanhq/cleaner/users/repofake"
)

const (
	testEmail        = "resident@example.com"
	testPassword     = "CleanSweep42"
	testRedirectURI  = "https://app.example.com/callback"
	testState        = "state-abc123"
	testCodeVerifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
)

var testSigningSecret = []byte("0123456789abcdef0123456789abcdef")

type testFixture struct {
	service            *auth.AuthorizationService
	codes              *fakecoderepo.FakeCodeRepo
	tokens             *token.Manager
	confidential       *clients.Client
	confidentialSecret string
	public             *clients.Client
	user               *users.User
	now                time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	ctx := context.Background()

	f := &testFixture{
		codes: fakecoderepo.NewFakeCodeRepo(),
		now:   time.Now(),
	}
	nowFunc := func() time.Time { return f.now }

	clientSvc, err := clients.NewService(fakeclientrepo.NewFakeClientRepo(), clients.WithNowFunc(nowFunc))
	require.NoError(t, err)
	userSvc, err := users.NewService(fakeuserrepo.NewFakeUserRepo(), users.WithNowFunc(nowFunc))
	require.NoError(t, err)

	codec, err := token.NewCodec(testSigningSecret, token.WithCodecNowFunc(nowFunc))
	require.NoError(t, err)
	f.tokens, err = token.NewManager(codec, tokenfakerepo.NewFakeTokenRepo(), token.WithNowFunc(nowFunc))
	require.NoError(t, err)

	f.user, err = userSvc.Register(ctx, testEmail, testPassword, "Test Resident")
	require.NoError(t, err)

	allGrants := []clients.GrantType{
		clients.GrantAuthorizationCode,
		clients.GrantRefreshToken,
		clients.GrantClientCredentials,
		clients.GrantPassword,
	}
	f.confidential, f.confidentialSecret, err = clientSvc.Create(ctx, "web-app", []string{testRedirectURI}, allGrants, scopes.Default(), false)
	require.NoError(t, err)
	f.public, _, err = clientSvc.Create(ctx, "mobile-app", []string{testRedirectURI}, allGrants, scopes.Default(), true)
	require.NoError(t, err)

	f.service, err = auth.NewAuthorizationService(auth.Deps{
		Codes:   f.codes,
		Clients: clientSvc,
		Users:   userSvc,
		Tokens:  f.tokens,
	}, auth.WithNowTime(nowFunc))
	require.NoError(t, err)

	return f
}

func (f *testFixture) authorizeParams(clientID string) *oauthmodel.AuthorizeParameters {
	return &oauthmodel.AuthorizeParameters{
		ResponseType: oauthmodel.ResponseTypeCode,
		ClientID:     clientID,
		RedirectURI:  testRedirectURI,
		Scope:        "rooms:read zones:read",
		State:        testState,
	}
}

// mintCode runs authorize + consent and returns the authorization code.
func (f *testFixture) mintCode(t *testing.T, params *oauthmodel.AuthorizeParameters) string {
	t.Helper()
	ctx := context.Background()

	pending, err := f.service.Authorize(ctx, params)
	require.NoError(t, err)

	code, err := f.service.Consent(ctx, pending, testEmail, testPassword, true)
	require.NoError(t, err)
	require.NotEmpty(t, code)
	return code
}

func pkceChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func requireOAuthError(t *testing.T, err error, code oauthmodel.ErrorCode) {
	t.Helper()
	var oauthErr *oauthmodel.Error
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, code, oauthErr.Code)
}

func requireRedirectError(t *testing.T, err error, code oauthmodel.ErrorCode) *auth.RedirectError {
	t.Helper()
	var redirectErr *auth.RedirectError
	require.ErrorAs(t, err, &redirectErr)
	require.Equal(t, code, redirectErr.Code)
	require.Equal(t, testState, redirectErr.State)
	return redirectErr
}

func TestAuthorizeUnknownClient(t *testing.T) {
	f := setupTestFixture(t)

	params := f.authorizeParams("no-such-client")
	_, err := f.service.Authorize(context.Background(), params)
	require.ErrorIs(t, err, auth.ErrUnknownClient)
}

func TestAuthorizeUnregisteredRedirectNeverRedirects(t *testing.T) {
	f := setupTestFixture(t)

	params := f.authorizeParams(f.confidential.ID)
	params.RedirectURI = "https://evil.example.com/steal"
	_, err := f.service.Authorize(context.Background(), params)
	require.ErrorIs(t, err, auth.ErrRedirectURIMismatch)
}

func TestAuthorizeBadResponseTypeRedirects(t *testing.T) {
	f := setupTestFixture(t)

	params := f.authorizeParams(f.confidential.ID)
	params.ResponseType = "token"
	_, err := f.service.Authorize(context.Background(), params)
	redirectErr := requireRedirectError(t, err, oauthmodel.ErrUnsupportedResponseType)
	require.Contains(t, redirectErr.URL(), testRedirectURI)
	require.Contains(t, redirectErr.URL(), "error=unsupported_response_type")
	require.Contains(t, redirectErr.URL(), "state="+testState)
}

func TestAuthorizeUnknownScope(t *testing.T) {
	f := setupTestFixture(t)

	params := f.authorizeParams(f.confidential.ID)
	params.Scope = "rooms:read kitchen:sink"
	_, err := f.service.Authorize(context.Background(), params)
	requireRedirectError(t, err, oauthmodel.ErrInvalidScope)
}

func TestAuthorizeScopeExceedingClientGrant(t *testing.T) {
	f := setupTestFixture(t)

	params := f.authorizeParams(f.confidential.ID)
	params.Scope = "admin"
	_, err := f.service.Authorize(context.Background(), params)
	requireRedirectError(t, err, oauthmodel.ErrInvalidScope)
}

func TestAuthorizeEmptyScopeDefaultsToClientGrant(t *testing.T) {
	f := setupTestFixture(t)

	params := f.authorizeParams(f.confidential.ID)
	params.Scope = ""
	pending, err := f.service.Authorize(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, f.confidential.Scopes, pending.Scopes)
}

func TestAuthorizePublicClientRequiresPKCE(t *testing.T) {
	f := setupTestFixture(t)

	params := f.authorizeParams(f.public.ID)
	_, err := f.service.Authorize(context.Background(), params)
	requireRedirectError(t, err, oauthmodel.ErrInvalidRequest)

	params.CodeChallenge = pkceChallengeS256(testCodeVerifier)
	params.CodeChallengeMethod = oauthmodel.ChallengeMethodS256
	_, err = f.service.Authorize(context.Background(), params)
	require.NoError(t, err)
}

func TestAuthorizeRejectsBogusChallengeMethod(t *testing.T) {
	f := setupTestFixture(t)

	params := f.authorizeParams(f.confidential.ID)
	params.CodeChallenge = "anything"
	params.CodeChallengeMethod = "S512"
	_, err := f.service.Authorize(context.Background(), params)
	requireRedirectError(t, err, oauthmodel.ErrInvalidRequest)
}

func TestConsentDenied(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pending, err := f.service.Authorize(ctx, f.authorizeParams(f.confidential.ID))
	require.NoError(t, err)

	_, err = f.service.Consent(ctx, pending, testEmail, testPassword, false)
	requireRedirectError(t, err, oauthmodel.ErrAccessDenied)
}

func TestConsentWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pending, err := f.service.Authorize(ctx, f.authorizeParams(f.confidential.ID))
	require.NoError(t, err)

	_, err = f.service.Consent(ctx, pending, testEmail, "wrong-password", true)
	require.ErrorIs(t, err, users.ErrInvalidCredentials)
}

func TestAuthorizationCodeFlow(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	code := f.mintCode(t, f.authorizeParams(f.confidential.ID))

	resp, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantAuthorizationCode),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, "rooms:read zones:read", resp.Scope)

	claims, err := f.tokens.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, f.user.ID, claims.Subject)
	require.Equal(t, f.confidential.ID, claims.ClientID)
	require.True(t, claims.Scopes.Contains(scopes.RoomsRead))
	require.False(t, claims.Scopes.Contains(scopes.RoomsWrite))
}

func TestAuthorizationCodeSingleUse(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	code := f.mintCode(t, f.authorizeParams(f.confidential.ID))
	req := &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantAuthorizationCode),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	}

	_, err := f.service.Token(ctx, req)
	require.NoError(t, err)

	_, err = f.service.Token(ctx, req)
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}

func TestAuthorizationCodeConcurrentRedemptionSingleWinner(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	code := f.mintCode(t, f.authorizeParams(f.confidential.ID))
	req := &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantAuthorizationCode),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	}

	const attempts = 8
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := f.service.Token(ctx, req)
			results <- err
		}()
	}

	var wins int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			wins++
		} else {
			requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
		}
	}
	require.Equal(t, 1, wins)
}

func TestAuthorizationCodeExpired(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	code := f.mintCode(t, f.authorizeParams(f.confidential.ID))
	f.now = f.now.Add(11 * time.Minute)

	_, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantAuthorizationCode),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}

func TestAuthorizationCodeBoundToClient(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	params := f.authorizeParams(f.public.ID)
	params.CodeChallenge = pkceChallengeS256(testCodeVerifier)
	params.CodeChallengeMethod = oauthmodel.ChallengeMethodS256
	code := f.mintCode(t, params)

	// A different, correctly authenticated client cannot redeem it.
	_, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantAuthorizationCode),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
		CodeVerifier: testCodeVerifier,
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}

func TestAuthorizationCodeRedirectMustMatch(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	code := f.mintCode(t, f.authorizeParams(f.confidential.ID))

	_, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantAuthorizationCode),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Code:         code,
		RedirectURI:  "https://app.example.com/other",
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}

func TestPKCEVerification(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	redeem := func(code, verifier string) error {
		_, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
			GrantType:    string(clients.GrantAuthorizationCode),
			ClientID:     f.public.ID,
			Code:         code,
			RedirectURI:  testRedirectURI,
			CodeVerifier: verifier,
		})
		return err
	}

	mint := func(challenge string, method oauthmodel.ChallengeMethod) string {
		params := f.authorizeParams(f.public.ID)
		params.CodeChallenge = challenge
		params.CodeChallengeMethod = method
		return f.mintCode(t, params)
	}

	// S256, correct verifier.
	require.NoError(t, redeem(mint(pkceChallengeS256(testCodeVerifier), oauthmodel.ChallengeMethodS256), testCodeVerifier))

	// S256, wrong verifier.
	err := redeem(mint(pkceChallengeS256(testCodeVerifier), oauthmodel.ChallengeMethodS256), "not-the-verifier-you-want-43-chars-long-xx")
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)

	// S256, missing verifier.
	err = redeem(mint(pkceChallengeS256(testCodeVerifier), oauthmodel.ChallengeMethodS256), "")
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)

	// plain, correct verifier.
	require.NoError(t, redeem(mint(testCodeVerifier, oauthmodel.ChallengeMethodPlain), testCodeVerifier))

	// plain, wrong verifier.
	err = redeem(mint(testCodeVerifier, oauthmodel.ChallengeMethodPlain), "something-else-entirely-but-long-enough-x")
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}

func TestVerifierWithoutChallengeFails(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	// Confidential client, no PKCE commitment at authorize time.
	code := f.mintCode(t, f.authorizeParams(f.confidential.ID))

	_, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantAuthorizationCode),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
		CodeVerifier: testCodeVerifier,
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}

func TestTokenInvalidClientSecret(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(context.Background(), &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantClientCredentials),
		ClientID:     f.confidential.ID,
		ClientSecret: "wrong-secret",
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidClient)
}

func TestTokenUnsupportedGrantType(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(context.Background(), &oauthmodel.TokenRequest{
		GrantType: "urn:ietf:params:oauth:grant-type:device_code",
		ClientID:  f.confidential.ID,
	})
	requireOAuthError(t, err, oauthmodel.ErrUnsupportedGrantType)

	_, err = f.service.Token(context.Background(), &oauthmodel.TokenRequest{ClientID: f.confidential.ID})
	requireOAuthError(t, err, oauthmodel.ErrInvalidRequest)
}

func TestClientCredentialsGrant(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	resp, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantClientCredentials),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Scope:        "stats:read",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Empty(t, resp.RefreshToken)
	require.Equal(t, "stats:read", resp.Scope)

	// Subject is the client itself.
	claims, err := f.tokens.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, f.confidential.ID, claims.Subject)
}

func TestClientCredentialsDefaultsToClientScopes(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Token(context.Background(), &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantClientCredentials),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
	})
	require.NoError(t, err)
	require.Equal(t, f.confidential.Scopes.String(), resp.Scope)
}

func TestClientCredentialsScopeOutsidePolicy(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(context.Background(), &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantClientCredentials),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Scope:        "admin",
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidScope)
}

func TestClientCredentialsRejectsPublicClient(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(context.Background(), &oauthmodel.TokenRequest{
		GrantType: string(clients.GrantClientCredentials),
		ClientID:  f.public.ID,
	})
	requireOAuthError(t, err, oauthmodel.ErrUnauthorizedClient)
}

func TestPasswordGrant(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	resp, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantPassword),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Username:     testEmail,
		Password:     testPassword,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, scopes.Default().String(), resp.Scope)

	claims, err := f.tokens.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, f.user.ID, claims.Subject)
}

func TestPasswordGrantWrongCredentials(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(context.Background(), &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantPassword),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Username:     testEmail,
		Password:     "not-it",
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}

func TestRefreshGrantRotation(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	code := f.mintCode(t, f.authorizeParams(f.confidential.ID))
	first, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantAuthorizationCode),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	})
	require.NoError(t, err)

	second, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantRefreshToken),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		RefreshToken: first.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Equal(t, first.Scope, second.Scope)

	// The rotated-out token is dead.
	_, err = f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantRefreshToken),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		RefreshToken: first.RefreshToken,
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}

func TestRefreshGrantRejectsGarbage(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(context.Background(), &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantRefreshToken),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		RefreshToken: "garbage",
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}

func TestRefreshGrantRejectsAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	code := f.mintCode(t, f.authorizeParams(f.confidential.ID))
	resp, err := f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantAuthorizationCode),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		Code:         code,
		RedirectURI:  testRedirectURI,
	})
	require.NoError(t, err)

	// An access token presented as a refresh token fails even though its
	// signature is valid.
	_, err = f.service.Token(ctx, &oauthmodel.TokenRequest{
		GrantType:    string(clients.GrantRefreshToken),
		ClientID:     f.confidential.ID,
		ClientSecret: f.confidentialSecret,
		RefreshToken: resp.AccessToken,
	})
	requireOAuthError(t, err, oauthmodel.ErrInvalidGrant)
}
