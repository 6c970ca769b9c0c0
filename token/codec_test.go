package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleanhq/cleaner/scopes"
	"github.com/cleanhq/cleaner/token"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

const (
	testUserID   = "user-1234"
	testClientID = "client-5678"
)

func newTestCodec(t *testing.T, now func() time.Time) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(testSecret, token.WithCodecNowFunc(now))
	require.NoError(t, err)
	return codec
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	_, err := token.NewCodec([]byte("too-short"))
	require.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, func() time.Time { return now })

	scps := scopes.NewSet(scopes.RoomsRead, scopes.ZonesWrite)
	raw, jti, err := codec.Issue(testUserID, testClientID, scps, token.KindAccess, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.Len(t, jti, 64) // 32 random bytes, hex encoded

	claims, err := codec.Verify(raw, token.KindAccess)
	require.NoError(t, err)
	require.Equal(t, testUserID, claims.Subject)
	require.Equal(t, testClientID, claims.ClientID)
	require.Equal(t, token.KindAccess, claims.Kind)
	require.Equal(t, jti, claims.JTI)
	require.Equal(t, scps, claims.Scopes)
	require.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	codec := newTestCodec(t, time.Now)

	raw, _, err := codec.Issue(testUserID, testClientID, scopes.Default(), token.KindRefresh, time.Hour)
	require.NoError(t, err)

	// Valid signature, wrong token_type claim.
	_, err = codec.Verify(raw, token.KindAccess)
	require.ErrorIs(t, err, token.ErrWrongTokenKind)

	_, err = codec.Verify(raw, token.KindRefresh)
	require.NoError(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, func() time.Time { return now })

	raw, _, err := codec.Issue(testUserID, testClientID, scopes.Default(), token.KindAccess, time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = codec.Verify(raw, token.KindAccess)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	codec := newTestCodec(t, time.Now)
	otherCodec, err := token.NewCodec([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	raw, _, err := otherCodec.Issue(testUserID, testClientID, scopes.Default(), token.KindAccess, time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(raw, token.KindAccess)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := newTestCodec(t, time.Now)

	_, err := codec.Verify("not-a-token", token.KindAccess)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = codec.VerifyAny("")
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyAnyResolvesKind(t *testing.T) {
	codec := newTestCodec(t, time.Now)

	access, _, err := codec.Issue(testUserID, testClientID, scopes.Default(), token.KindAccess, time.Hour)
	require.NoError(t, err)
	refresh, _, err := codec.Issue(testUserID, testClientID, scopes.Default(), token.KindRefresh, time.Hour)
	require.NoError(t, err)

	claims, err := codec.VerifyAny(access)
	require.NoError(t, err)
	require.Equal(t, token.KindAccess, claims.Kind)

	claims, err = codec.VerifyAny(refresh)
	require.NoError(t, err)
	require.Equal(t, token.KindRefresh, claims.Kind)
}

func TestHashIDIsStableAndOpaque(t *testing.T) {
	hash := token.HashID("some-jti")
	require.Len(t, hash, 64)
	require.Equal(t, hash, token.HashID("some-jti"))
	require.NotEqual(t, hash, token.HashID("other-jti"))
}
